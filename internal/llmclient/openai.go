package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Client against an OpenAI-compatible
// chat-completions endpoint. The base URL is configurable so the same
// adapter serves OpenAI proper and any compatible self-hosted gateway.
type OpenAIClient struct {
	client oai.Client
	model  string
}

// NewOpenAIClient constructs an OpenAIClient. apiURL may be empty to use
// the provider's default endpoint.
func NewOpenAIClient(apiKey, apiURL, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llmclient: openai api key must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("llmclient: openai model must not be empty")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: RequestTimeout + 10*time.Second}),
	}
	if apiURL != "" {
		opts = append(opts, option.WithBaseURL(apiURL))
	}

	return &OpenAIClient{client: oai.NewClient(opts...), model: model}, nil
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	messages := []oai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, oai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, oai.UserMessage(req.UserPrompt))

	params := oai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: oai.Float(req.Temperature),
	}
	if req.TopP > 0 {
		params.TopP = oai.Float(req.TopP)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("llmclient: openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("llmclient: openai completion: empty choices")
	}
	return Response{Content: resp.Choices[0].Message.Content}, nil
}

// Close implements Client. The OpenAI SDK client has no persistent
// connection to release.
func (c *OpenAIClient) Close() error { return nil }
