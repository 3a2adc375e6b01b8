package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	gojson "github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const botSystemInstruction = "You are Trexense, a travel assistant for trips in Indonesia. " +
	"Answer with concise, practical suggestions about destinations, food, transport and budgets."

var _ Bot = (*GeminiBot)(nil)

// GeminiBot answers prompts with a Gemini model. Its payload mirrors the ML
// service so clients see the same shape regardless of backend.
type GeminiBot struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func NewGeminiBot(ctx context.Context, apiKey, model string, logger *slog.Logger) (*GeminiBot, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiBot{client: client, model: model, logger: logger}, nil
}

type botReply struct {
	Response string `json:"response"`
}

func (b *GeminiBot) SendMessage(ctx context.Context, prompt string) (json.RawMessage, error) {
	ctx, span := otel.Tracer("GeminiBot").Start(ctx, "SendMessage")
	defer span.End()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(botSystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.7),
	}
	result, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), config)
	if err != nil {
		b.logger.ErrorContext(ctx, "Gemini request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "gemini request failed")
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	payload, err := gojson.Marshal(botReply{Response: result.Text()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode bot reply: %w", err)
	}
	return json.RawMessage(payload), nil
}
