package pipeline

import (
	"embed"
	"os"

	"github.com/viant/afs"
)

// Option customises the loader.
type Option func(s *Service)

// WithFS overrides the storage service.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithEmbedFS makes embed:// URLs resolve against fs.
func WithEmbedFS(fs *embed.FS) Option {
	return func(s *Service) { s.embedFS = fs }
}

// WithEnv overrides the ${env.KEY} lookup, os.Getenv by default.
func WithEnv(lookup func(key string) string) Option {
	return func(s *Service) { s.env = lookup }
}

func defaultEnv() func(string) string { return os.Getenv }
