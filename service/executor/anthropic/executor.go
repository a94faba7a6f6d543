// Package anthropic implements the executor variant backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/service/executor"
	"github.com/viant/crewflow/service/executor/tool"
)

// Kind is the registry tag of this variant.
const Kind = "anthropic"

const defaultMaxTokens = 8192

type service struct {
	profile   *model.Profile
	client    anthropic.Client
	tools     []tool.Tool
	maxTokens int64
}

// New is the executor.Builder of this variant.
func New(profile *model.Profile, env *executor.Environment) (executor.Executor, error) {
	provider := env.Provider(Kind)
	if provider.APIKey == "" {
		return nil, fmt.Errorf("executor %s: %s api key is not configured", profile.Name, Kind)
	}
	tools, err := env.Tools.Resolve(profile.Tools)
	if err != nil {
		return nil, err
	}
	opts := []option.RequestOption{option.WithAPIKey(provider.APIKey)}
	if provider.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(provider.BaseURL))
	}
	maxTokens := int64(provider.MaxTokens)
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	return &service{
		profile:   profile,
		client:    anthropic.NewClient(opts...),
		tools:     tools,
		maxTokens: maxTokens,
	}, nil
}

func (s *service) definitions() []anthropic.ToolUnionParam {
	ret := make([]anthropic.ToolUnionParam, 0, len(s.tools))
	for _, t := range s.tools {
		properties, required := t.Schema()
		ret = append(ret, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name(),
				Description: anthropic.String(t.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}
	return ret
}

// Invoke runs the tool-use loop until the model ends its turn.
func (s *service) Invoke(ctx context.Context, request *executor.Request) (*executor.Result, error) {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(executor.UserPrompt(request))),
	}
	system := executor.SystemPrompt(s.profile, request)
	limit := s.profile.GetMaxIterations()
	prior := request.PriorMap()
	result := &executor.Result{}
	for result.Iterations < limit {
		result.Iterations++
		params := anthropic.MessageNewParams{
			Model:       anthropic.Model(s.profile.ModelName()),
			MaxTokens:   s.maxTokens,
			Messages:    messages,
			Temperature: anthropic.Float(s.profile.GetTemperature()),
		}
		if system != "" {
			params.System = []anthropic.TextBlockParam{{Text: system}}
		}
		if len(s.tools) > 0 {
			params.Tools = s.definitions()
		}
		resp, err := s.client.Messages.New(ctx, params)
		if err != nil {
			return result, fmt.Errorf("%s call failed: %w", Kind, err)
		}
		result.TokensIn += resp.Usage.InputTokens
		result.TokensOut += resp.Usage.OutputTokens

		var assistantBlocks []anthropic.ContentBlockParamUnion
		var toolResultBlocks []anthropic.ContentBlockParamUnion
		var text string
		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				text += variant.Text
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(variant.Text))
			case anthropic.ToolUseBlock:
				assistantBlocks = append(assistantBlocks, anthropic.NewToolUseBlock(variant.ID, variant.Input, variant.Name))
				content, isError := s.call(ctx, request, prior, variant.Name, variant.Input)
				toolResultBlocks = append(toolResultBlocks, anthropic.NewToolResultBlock(variant.ID, content, isError))
			}
		}
		if len(toolResultBlocks) == 0 || resp.StopReason == anthropic.StopReasonEndTurn {
			result.Content = text
			return result, nil
		}
		messages = append(messages, anthropic.NewAssistantMessage(assistantBlocks...))
		messages = append(messages, anthropic.NewUserMessage(toolResultBlocks...))
	}
	return result, executor.Exhausted(limit)
}

func (s *service) call(ctx context.Context, request *executor.Request, prior map[string]string, name string, input json.RawMessage) (string, bool) {
	var selected tool.Tool
	for _, t := range s.tools {
		if t.Name() == name {
			selected = t
			break
		}
	}
	if selected == nil {
		return fmt.Sprintf("tool %s is not available", name), true
	}
	args := map[string]interface{}{}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return fmt.Sprintf("invalid arguments: %v", err), true
		}
	}
	output, err := selected.Call(ctx, &tool.Call{RunID: request.RunID, TaskID: request.TaskID, Args: args, Prior: prior})
	if err != nil {
		return err.Error(), true
	}
	return output, false
}
