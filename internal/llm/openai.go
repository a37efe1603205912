package llm

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

type openAIClient struct {
	api *openai.Client
}

func (f *Factory) openAI() (*openAIClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openai != nil {
		return f.openai, nil
	}
	if f.cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not configured")
	}
	f.openai = &openAIClient{api: openai.NewClient(f.cfg.OpenAI.APIKey)}
	return f.openai, nil
}

type openAIGenerator struct {
	client *openAIClient
	model  string
}

// chatRequest builds the completion request for one prompt. The request
// Temperature field is tagged omitempty, so a literal 0 would vanish from
// the wire and the API would fall back to its non-deterministic default;
// the smallest positive float32 survives serialization and is the
// library's way of sending an explicit zero.
func chatRequest(model, prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       model,
		Temperature: math.SmallestNonzeroFloat32,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.api.CreateChatCompletion(ctx, chatRequest(g.model, prompt))
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

type openAIEmbedder struct {
	client *openAIClient
	model  string
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embedding: empty response")
	}
	return resp.Data[0].Embedding, nil
}
