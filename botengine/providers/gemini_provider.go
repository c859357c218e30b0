package providers

import (
	"context"
	"fmt"

	domain "github.com/AzielCF/az-hub/botengine/domain"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiProvider is the adapter for the Google Gemini API
type GeminiProvider struct{}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider() *GeminiProvider {
	return &GeminiProvider{}
}

// decisionResponseSchema mirrors the JSON decision contract for Gemini's
// structured output mode.
var decisionResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"messages":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"delays_ms":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeInteger}},
		"quote":          {Type: genai.TypeBoolean},
		"reaction_emoji": {Type: genai.TypeString},
		"send_media_id":  {Type: genai.TypeString},
		"transfer_url":   {Type: genai.TypeString},
		"save_name":      {Type: genai.TypeString},
	},
	Required: []string{"messages"},
}

// Call implementa la interfaz Provider enviando una petición a la API de Gemini
func (p *GeminiProvider) Call(ctx context.Context, cfg *domain.ChatbotConfig, system string, history []domain.Turn, user string) (*domain.Decision, domain.Usage, error) {
	if cfg.APIKey == "" {
		return nil, domain.Usage{}, fmt.Errorf("chatbot %s has no API key", cfg.ID)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, domain.Usage{}, err
	}

	model := cfg.Model
	if model == "" {
		model = domain.DefaultGeminiModel
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](domain.GenTemperature),
		MaxOutputTokens:  domain.GenMaxOutputTokens,
		ResponseMIMEType: "application/json",
		ResponseSchema:   decisionResponseSchema,
	}
	if system != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(system, "")
	}

	var contents []*genai.Content
	for _, t := range history {
		role := genai.Role(genai.RoleUser)
		if t.FromMe {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(user, genai.RoleUser))

	resp, err := client.Models.GenerateContent(ctx, model, contents, genConfig)
	if err != nil {
		return nil, domain.Usage{}, err
	}

	usage := domain.Usage{}
	if resp.UsageMetadata != nil {
		usage.TotalTokens = int64(resp.UsageMetadata.TotalTokenCount)
	}

	decision, err := domain.ParseDecision(resp.Text())
	if err != nil {
		return nil, usage, err
	}

	logrus.WithFields(logrus.Fields{
		"config":       cfg.ID,
		"model":        model,
		"total_tokens": usage.TotalTokens,
		"messages":     len(decision.Messages),
	}).Debug("[GEMINI] Decision completed")

	return decision, usage, nil
}
