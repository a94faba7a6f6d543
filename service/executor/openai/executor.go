package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/service/executor"
	"github.com/viant/crewflow/service/executor/tool"
)

// Kind is the registry tag of this variant.
const Kind = "openai"

type service struct {
	profile   *model.Profile
	client    *Client
	tools     []tool.Tool
	maxTokens int
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
	return &service{
		profile:   profile,
		client:    NewClient(provider.BaseURL, provider.APIKey),
		tools:     tools,
		maxTokens: provider.MaxTokens,
	}, nil
}

func (s *service) definitions() []Tool {
	ret := make([]Tool, 0, len(s.tools))
	for _, t := range s.tools {
		properties, required := t.Schema()
		if required == nil {
			required = []string{}
		}
		ret = append(ret, Tool{Type: "function", Function: ToolFunction{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  map[string]interface{}{"type": "object", "properties": properties, "required": required},
		}})
	}
	return ret
}

func (s *service) lookup(name string) tool.Tool {
	for _, t := range s.tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// Invoke runs the tool-call loop until the model stops calling tools.
func (s *service) Invoke(ctx context.Context, request *executor.Request) (*executor.Result, error) {
	temperature := s.profile.GetTemperature()
	messages := []ChatMessage{
		{Role: "system", Content: executor.SystemPrompt(s.profile, request)},
		{Role: "user", Content: executor.UserPrompt(request)},
	}
	limit := s.profile.GetMaxIterations()
	result := &executor.Result{}
	prior := request.PriorMap()
	for result.Iterations < limit {
		result.Iterations++
		response, err := s.client.CreateChatCompletion(ctx, &ChatCompletionRequest{
			Model:       s.profile.ModelName(),
			Messages:    messages,
			Tools:       s.definitions(),
			MaxTokens:   s.maxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return result, fmt.Errorf("%s call failed: %w", Kind, err)
		}
		if response.Usage != nil {
			result.TokensIn += int64(response.Usage.PromptTokens)
			result.TokensOut += int64(response.Usage.CompletionTokens)
		}
		if len(response.Choices) == 0 {
			return result, fmt.Errorf("%s returned no choices", Kind)
		}
		message := response.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			result.Content = message.Content
			return result, nil
		}
		messages = append(messages, message)
		for _, call := range message.ToolCalls {
			messages = append(messages, ChatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    s.call(ctx, request, prior, call),
			})
		}
	}
	return result, executor.Exhausted(limit)
}

func (s *service) call(ctx context.Context, request *executor.Request, prior map[string]string, call ToolCall) string {
	t := s.lookup(call.Function.Name)
	if t == nil {
		return fmt.Sprintf("error: tool %s is not available", call.Function.Name)
	}
	args := map[string]interface{}{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return fmt.Sprintf("error: invalid arguments: %v", err)
		}
	}
	output, err := t.Call(ctx, &tool.Call{RunID: request.RunID, TaskID: request.TaskID, Args: args, Prior: prior})
	if err != nil {
		return "error: " + err.Error()
	}
	return output
}
