package providers

import (
	"context"
	"fmt"

	domain "github.com/AzielCF/az-hub/botengine/domain"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
)

// OpenAIProvider is the adapter for the OpenAI API
type OpenAIProvider struct{}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider() *OpenAIProvider {
	return &OpenAIProvider{}
}

// decisionSchema constrains the model output to the decision contract.
var decisionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"messages":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"delays_ms":      map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
		"quote":          map[string]any{"type": "boolean"},
		"reaction_emoji": map[string]any{"type": "string"},
		"send_media_id":  map[string]any{"type": "string"},
		"transfer_url":   map[string]any{"type": "string"},
		"save_name":      map[string]any{"type": "string"},
	},
	"required":             []string{"messages", "delays_ms", "quote", "reaction_emoji", "send_media_id", "transfer_url", "save_name"},
	"additionalProperties": false,
}

// Call implementa la interfaz Provider contra chat completions.
func (p *OpenAIProvider) Call(ctx context.Context, cfg *domain.ChatbotConfig, system string, history []domain.Turn, user string) (*domain.Decision, domain.Usage, error) {
	if cfg.APIKey == "" {
		return nil, domain.Usage{}, fmt.Errorf("chatbot %s has no API key", cfg.ID)
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
	)

	model := cfg.Model
	if model == "" {
		model = domain.DefaultOpenAIModel
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, t := range history {
		if t.FromMe {
			messages = append(messages, openai.AssistantMessage(t.Content))
		} else {
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}
	messages = append(messages, openai.UserMessage(user))

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(model),
		Messages:            messages,
		Temperature:         openai.Float(domain.GenTemperature),
		MaxCompletionTokens: openai.Int(domain.GenMaxOutputTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "chat_decision",
					Schema: any(decisionSchema),
					Strict: openai.Bool(true),
				},
			},
		},
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, domain.Usage{}, err
	}
	if len(completion.Choices) == 0 {
		return nil, domain.Usage{}, fmt.Errorf("no response from openai")
	}

	usage := domain.Usage{TotalTokens: completion.Usage.TotalTokens}
	decision, err := domain.ParseDecision(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, usage, err
	}

	logrus.WithFields(logrus.Fields{
		"config":       cfg.ID,
		"model":        model,
		"total_tokens": usage.TotalTokens,
		"messages":     len(decision.Messages),
	}).Debug("[OPENAI] Decision completed")

	return decision, usage, nil
}
