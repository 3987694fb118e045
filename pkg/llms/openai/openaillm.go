package openai

import (
	"context"
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/learnagent/pkg/llms/openai/internal/openaiclient"
	"github.com/effective-security/x/values"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

// ErrEmptyResponse is returned when the API returns no choices.
var ErrEmptyResponse = openaiclient.ErrEmptyResponse

// LLM is the chat completions model for OpenAI and Azure OpenAI.
type LLM struct {
	client *openaiclient.Client
}

var _ llms.Model = (*LLM)(nil)

// New returns a new OpenAI LLM.
func New(opts ...Option) (*LLM, error) {
	c, err := newClient(opts...)
	if err != nil {
		return nil, err
	}
	return &LLM{
		client: c,
	}, nil
}

func newClient(opts ...Option) (*openaiclient.Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.provider == "" {
		o.provider = llms.ProviderOpenAI
	}

	cfg := openaiclient.Config{
		Provider:     o.provider,
		Organization: values.StringsCoalesce(o.organization, os.Getenv(organizationEnvVarName)),
		HTTPClient:   o.httpClient,
	}

	switch o.provider {
	case llms.ProviderAzure, llms.ProviderAzureAD:
		cfg.Model = values.StringsCoalesce(o.model, os.Getenv(azureDeploymentEnvVarName))
		cfg.BaseURL = values.StringsCoalesce(o.baseURL, os.Getenv(azureEndpointEnvVarName))
		cfg.APIVersion = values.StringsCoalesce(o.apiVersion, os.Getenv(azureAPIVersionEnvVarName), DefaultAPIVersion)
		if o.provider == llms.ProviderAzure {
			cfg.Token = values.StringsCoalesce(o.token, os.Getenv(azureAPIKeyEnvVarName))
			break
		}
		cred := o.credential
		if cred == nil {
			var err error
			cred, err = NewDefaultCredential()
			if err != nil {
				return nil, err
			}
		}
		cfg.TokenProvider = NewBearerTokenProvider(cred, o.scope)
	default:
		cfg.Model = values.StringsCoalesce(o.model, os.Getenv(modelEnvVarName))
		cfg.BaseURL = values.StringsCoalesce(o.baseURL, os.Getenv(baseURLEnvVarName), os.Getenv(baseAPIBaseEnvVarName))
		cfg.Token = values.StringsCoalesce(o.token, os.Getenv(tokenEnvVarName))
	}

	return openaiclient.New(cfg)
}

// GetName returns the model or deployment name.
func (o *LLM) GetName() string {
	return o.client.Model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return o.client.Provider
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(options...)

	chatMsgs, err := ToMessages(messages)
	if err != nil {
		return nil, err
	}

	req := &openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(opts.Model),
		Messages: chatMsgs,
	}
	if opts.Temperature > 0 {
		req.Temperature = openai.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		req.TopP = openai.Float(opts.TopP)
	}
	if opts.MaxTokens > 0 {
		req.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}
	if len(opts.StopWords) > 0 {
		req.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: opts.StopWords}
	}
	if len(opts.Metadata) > 0 {
		req.Metadata = toMetadata(opts.Metadata)
	}

	for _, tool := range opts.Tools {
		t, err := toolFromTool(tool)
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert llms tool to openai tool")
		}
		req.Tools = append(req.Tools, t)
	}
	if len(req.Tools) > 0 && opts.ToolChoice != "" {
		req.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(opts.ToolChoice),
		}
	}

	result, err := o.client.CreateChat(ctx, req)
	if err != nil {
		return nil, err
	}

	choices := make([]*llms.ContentChoice, len(result.Choices))
	for i, c := range result.Choices {
		choices[i] = &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: c.FinishReason,
			GenerationInfo: map[string]any{
				"InputTokens":  result.Usage.PromptTokens,
				"OutputTokens": result.Usage.CompletionTokens,
				"TotalTokens":  result.Usage.TotalTokens,
			},
		}

		for _, tool := range c.Message.ToolCalls {
			choices[i].ToolCalls = append(choices[i].ToolCalls, llms.ToolCall{
				ID:   tool.ID,
				Type: string(tool.Type),
				FunctionCall: &llms.FunctionCall{
					Name:      tool.Function.Name,
					Arguments: tool.Function.Arguments,
				},
			})
		}
	}
	return &llms.ContentResponse{Choices: choices}, nil
}

// ToMessages converts the messages to chat completion messages.
func ToMessages(messages []llms.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	chatMsgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, mc := range messages {
		switch mc.Role {
		case llms.RoleSystem:
			chatMsgs = append(chatMsgs, openai.SystemMessage(mc.GetText()))
		case llms.RoleHuman:
			chatMsgs = append(chatMsgs, openai.UserMessage(mc.GetText()))
		case llms.RoleAI:
			chatMsgs = append(chatMsgs, assistantMessage(mc))
		case llms.RoleTool:
			for _, p := range mc.Parts {
				resp, ok := p.(llms.ToolCallResponse)
				if !ok {
					return nil, errors.Errorf("expected part of type ToolCallResponse for role %v, got %T", mc.Role, p)
				}
				chatMsgs = append(chatMsgs, openai.ToolMessage(resp.Content, resp.ToolCallID))
			}
		default:
			return nil, errors.Wrapf(llms.ErrUnexpectedRole, "role %v not supported", mc.Role)
		}
	}
	return chatMsgs, nil
}

func assistantMessage(mc llms.Message) openai.ChatCompletionMessageParamUnion {
	var toolCalls []openai.ChatCompletionMessageToolCallUnionParam
	for _, p := range mc.Parts {
		if tc, ok := p.(llms.ToolCall); ok && tc.FunctionCall != nil {
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      tc.FunctionCall.Name,
						Arguments: tc.FunctionCall.Arguments,
					},
				},
			})
		}
	}
	if len(toolCalls) == 0 {
		return openai.AssistantMessage(mc.GetText())
	}

	msg := &openai.ChatCompletionAssistantMessageParam{
		ToolCalls: toolCalls,
	}
	if text := mc.GetText(); text != "" {
		msg.Content.OfString = openai.String(text)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: msg}
}

// toolFromTool converts an llms.Tool to a chat completion tool.
func toolFromTool(t llms.Tool) (openai.ChatCompletionToolUnionParam, error) {
	if t.Type != "function" || t.Function == nil {
		return openai.ChatCompletionToolUnionParam{}, errors.Errorf("tool type %v not supported", t.Type)
	}

	def := shared.FunctionDefinitionParam{
		Name: t.Function.Name,
	}
	if t.Function.Description != "" {
		def.Description = openai.String(t.Function.Description)
	}
	if t.Function.Strict {
		def.Strict = openai.Bool(true)
	}
	if t.Function.Parameters != nil {
		params, err := toFunctionParameters(t.Function.Parameters)
		if err != nil {
			return openai.ChatCompletionToolUnionParam{}, errors.WithMessagef(err, "invalid parameters for tool %s", t.Function.Name)
		}
		def.Parameters = params
	}
	return openai.ChatCompletionFunctionTool(def), nil
}

func toFunctionParameters(schema any) (shared.FunctionParameters, error) {
	js, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var params shared.FunctionParameters
	if err := json.Unmarshal(js, &params); err != nil {
		return nil, errors.WithStack(err)
	}
	return params, nil
}

func toMetadata(md map[string]any) shared.Metadata {
	res := make(shared.Metadata, len(md))
	for k, v := range md {
		if s, ok := v.(string); ok {
			res[k] = s
			continue
		}
		js, _ := json.Marshal(v)
		res[k] = string(js)
	}
	return res
}
