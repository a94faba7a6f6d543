package pipeline

import (
	"context"
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	_ "github.com/viant/afs/embed"
	"github.com/viant/afs/storage"
	"github.com/viant/crewflow/internal/yml"
	"github.com/viant/crewflow/model"
	"github.com/viant/toolbox"
	"gopkg.in/yaml.v3"
)

// Service loads pipeline definitions from YAML documents.
type Service struct {
	fs      afs.Service
	embedFS *embed.FS
	env     func(string) string
}

// New creates a loader.
func New(opts ...Option) *Service {
	ret := &Service{fs: afs.New(), env: defaultEnv()}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *Service) options(URL string) []storage.Option {
	if s.embedFS != nil && strings.HasPrefix(URL, "embed:") {
		return []storage.Option{s.embedFS}
	}
	return nil
}

// Load reads and validates the pipeline at URL. A missing extension
// defaults to .yaml.
func (s *Service) Load(ctx context.Context, URL string) (*model.Pipeline, error) {
	if path.Ext(URL) == "" {
		URL += ".yaml"
	}
	options := s.options(URL)
	data, err := s.fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline from %s: %w", URL, err)
	}
	pipeline, err := s.Decode(URL, data)
	if err != nil {
		return nil, err
	}
	if object, err := s.fs.Object(ctx, URL, options...); err == nil && object != nil {
		pipeline.Source.Modified = object.ModTime()
	}
	return pipeline, nil
}

// Decode parses a YAML document. URL only seeds the source and the default name.
func (s *Service) Decode(URL string, data []byte) (*model.Pipeline, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, model.NewConfigurationError(nameFromURL(URL), fmt.Errorf("invalid yaml: %w", err))
	}
	root := (*yml.Node)(&node).Root()
	root.Rewrite(func(value string) string { return expandEnv(value, s.env) })

	pipeline := model.NewPipeline(nameFromURL(URL))
	pipeline.Source = &model.Source{URL: URL}
	if err := parsePipeline(root, pipeline); err != nil {
		return nil, model.NewConfigurationError(pipeline.Name, err)
	}
	if issues := pipeline.Validate(); len(issues) > 0 {
		return nil, model.NewConfigurationError(pipeline.Name, issues...)
	}
	return pipeline, nil
}

func nameFromURL(URL string) string {
	base := path.Base(URL)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// normalize folds camelCase and snake_case keys onto one spelling.
func normalize(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "")
	return strings.ReplaceAll(key, "-", "")
}

func parsePipeline(root *yml.Node, pipeline *model.Pipeline) error {
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("pipeline document should be a mapping")
	}
	return root.Pairs(func(key string, value *yml.Node) error {
		switch normalize(key) {
		case "name":
			pipeline.Name = value.Value
		case "description":
			pipeline.Description = value.Value
		case "version":
			pipeline.Version = value.Value
		case "executors", "agents":
			return parseExecutors(value, pipeline)
		case "tasks":
			return parseTasks(value, pipeline)
		case "handoff":
			handoff, err := parseHandoff(value)
			if err != nil {
				return err
			}
			pipeline.Handoff = handoff
		}
		return nil
	})
}

func parseExecutors(node *yml.Node, pipeline *model.Pipeline) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("executors should be a mapping")
	}
	return node.Pairs(func(name string, value *yml.Node) error {
		profile, err := parseProfile(value)
		if err != nil {
			return fmt.Errorf("executor %s: %w", name, err)
		}
		pipeline.WithExecutor(name, profile)
		return nil
	})
}

func parseProfile(node *yml.Node) (*model.Profile, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("profile should be a mapping")
	}
	profile := &model.Profile{}
	err := node.Pairs(func(key string, value *yml.Node) error {
		switch normalize(key) {
		case "role":
			profile.Role = strings.TrimSpace(value.Value)
		case "goal":
			profile.Goal = strings.TrimSpace(value.Value)
		case "backstory":
			profile.Backstory = strings.TrimSpace(value.Value)
		case "kind":
			profile.Kind = value.Value
		case "model", "llm":
			profile.Model = value.Value
		case "temperature":
			temperature, err := toolbox.ToFloat(value.Interface())
			if err != nil {
				return fmt.Errorf("invalid temperature %q: %w", value.Value, err)
			}
			profile.Temperature = model.Temperature(temperature)
		case "maxiterations", "maxiter":
			iterations, err := toolbox.ToInt(value.Interface())
			if err != nil {
				return fmt.Errorf("invalid maxIterations %q: %w", value.Value, err)
			}
			profile.MaxIterations = iterations
		case "allowdelegation":
			profile.AllowDelegation = toolbox.AsBoolean(value.Interface())
		case "injectdate":
			profile.InjectDate = toolbox.AsBoolean(value.Interface())
		case "tools":
			profile.Tools = value.Strings()
		}
		return nil
	})
	return profile, err
}

func parseTasks(node *yml.Node, pipeline *model.Pipeline) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("tasks should be a sequence")
	}
	return node.Items(func(index int, item *yml.Node) error {
		if item.Kind != yaml.MappingNode {
			return fmt.Errorf("task #%d should be a mapping", index)
		}
		task := &model.Task{}
		if err := item.Pairs(func(key string, value *yml.Node) error {
			switch normalize(key) {
			case "id", "name":
				task.ID = value.Value
			case "executor", "agent":
				task.Executor = value.Value
			case "humanapproval", "humaninput":
				task.HumanApproval = toolbox.AsBoolean(value.Interface())
			case "description":
				task.Description = strings.TrimSpace(value.Value)
			case "expectedoutput":
				task.ExpectedOutput = strings.TrimSpace(value.Value)
			}
			return nil
		}); err != nil {
			return err
		}
		pipeline.Tasks = append(pipeline.Tasks, task)
		return nil
	})
}

func parseHandoff(node *yml.Node) (*model.Handoff, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("handoff should be a mapping")
	}
	handoff := &model.Handoff{}
	err := node.Pairs(func(key string, value *yml.Node) error {
		switch normalize(key) {
		case "url":
			handoff.URL = value.Value
		case "path":
			handoff.Path = value.Value
		case "bearertoken", "token":
			handoff.BearerToken = value.Value
		case "secreturl":
			handoff.SecretURL = value.Value
		case "secretkey":
			handoff.SecretKey = value.Value
		case "timeout":
			handoff.Timeout = value.Value
		}
		return nil
	})
	return handoff, err
}
