// Package anthropic adapts Anthropic's Claude API to model.ChatModel.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dshills/workchain-go/workchain/model"
)

// ChatModel implements model.ChatModel against Claude, extracting any
// system message into Anthropic's separate system parameter.
type ChatModel struct {
	modelName string
	client    anthropicClient
}

type anthropicClient interface {
	createMessage(ctx context.Context, systemPrompt string, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error)
}

// NewChatModel builds a ChatModel for apiKey and modelName. An empty
// modelName selects a current default.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	return &ChatModel{
		modelName: modelName,
		client:    &sdkClient{apiKey: apiKey, modelName: modelName},
	}
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}
	systemPrompt, rest := extractSystemPrompt(messages)
	return m.client.createMessage(ctx, systemPrompt, rest, tools)
}

func extractSystemPrompt(messages []model.Message) (string, []model.Message) {
	var systemPrompt string
	var rest []model.Message
	for _, msg := range messages {
		if msg.Role != model.RoleSystem {
			rest = append(rest, msg)
			continue
		}
		if systemPrompt != "" {
			systemPrompt += "\n\n"
		}
		systemPrompt += msg.Content
	}
	return systemPrompt, rest
}

// sdkClient wraps the official Anthropic SDK.
type sdkClient struct {
	apiKey    string
	modelName string
}

func (c *sdkClient) createMessage(ctx context.Context, systemPrompt string, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if c.apiKey == "" {
		return model.ChatOut{}, errors.New("anthropic: API key is required")
	}

	client := anthropicsdk.NewClient(option.WithAPIKey(c.apiKey))

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(c.modelName),
		Messages:  convertMessages(messages),
		MaxTokens: 4096,
	}
	if systemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: systemPrompt}}
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic: %w", err)
	}
	return convertResponse(resp), nil
}

func convertMessages(messages []model.Message) []anthropicsdk.MessageParam {
	out := make([]anthropicsdk.MessageParam, len(messages))
	for i, msg := range messages {
		block := anthropicsdk.NewTextBlock(msg.Content)
		if msg.Role == model.RoleAssistant {
			out[i] = anthropicsdk.NewAssistantMessage(block)
		} else {
			out[i] = anthropicsdk.NewUserMessage(block)
		}
	}
	return out
}

func convertTools(tools []model.ToolSpec) []anthropicsdk.ToolUnionParam {
	out := make([]anthropicsdk.ToolUnionParam, len(tools))
	for i, tool := range tools {
		var properties any
		var required []string
		if tool.Schema != nil {
			properties = tool.Schema["properties"]
			switch req := tool.Schema["required"].(type) {
			case []string:
				required = req
			case []interface{}:
				for _, v := range req {
					if s, ok := v.(string); ok {
						required = append(required, s)
					}
				}
			}
		}
		out[i] = anthropicsdk.ToolUnionParam{
			OfTool: &anthropicsdk.ToolParam{
				Name:        tool.Name,
				Description: anthropicsdk.String(tool.Description),
				InputSchema: anthropicsdk.ToolInputSchemaParam{Properties: properties, Required: required},
			},
		}
	}
	return out
}

func convertResponse(resp *anthropicsdk.Message) model.ChatOut {
	out := model.ChatOut{}
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropicsdk.TextBlock:
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += b.Text
		case anthropicsdk.ToolUseBlock:
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{Name: b.Name, Input: asMap(b.Input)})
		}
	}
	return out
}

func asMap(input interface{}) map[string]interface{} {
	if input == nil {
		return nil
	}
	if m, ok := input.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{"_raw": input}
}
