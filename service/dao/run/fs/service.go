package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/dao"
	"github.com/viant/crewflow/service/dao/criteria"
)

// Service persists runs as JSON documents under a base URL (file://, mem://, gs://, s3://...).
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

var _ dao.Service[string, run.Run] = (*Service)(nil)

// Save persists a run snapshot.
func (s *Service) Save(ctx context.Context, r *run.Run) error {
	if r == nil {
		return dao.ErrNilEntity
	}
	if r.ID == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(r.Clone())
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", r.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.runURL(r.ID)
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save run to %s: %w", location, err)
	}
	return nil
}

// Load retrieves a run.
func (s *Service) Load(ctx context.Context, id string) (*run.Run, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	location := s.runURL(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check run %s: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("run %s: %w", id, dao.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", id, err)
	}
	ret := &run.Run{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}
	return ret, nil
}

// Delete removes a run.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.runURL(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check run %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("run %s: %w", id, dao.ErrNotFound)
	}
	if err := s.fs.Delete(ctx, location); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	return nil
}

// List returns all stored runs matching parameters.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*run.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var runs []*run.Run
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			log.Printf("crewflow: skipping run file %s: %v", object.URL(), err)
			continue
		}
		r := &run.Run{}
		if err := json.Unmarshal(data, r); err != nil {
			log.Printf("crewflow: skipping run file %s: %v", object.URL(), err)
			continue
		}
		if !criteria.Match(r.Fields(), parameters) {
			continue
		}
		runs = append(runs, r)
	}
	return runs, nil
}

func (s *Service) runURL(id string) string {
	return url.Join(s.baseURL, path.Base(id)+".json")
}

// New creates a run store rooted at baseURL, creating it when missing.
func New(baseURL string) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	fs := afs.New()
	ctx := context.Background()
	baseURL = url.Normalize(baseURL, file.Scheme)
	if exists, _ := fs.Exists(ctx, baseURL); !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create run directory %s: %w", baseURL, err)
		}
	}
	return &Service{baseURL: baseURL, fs: fs}, nil
}
