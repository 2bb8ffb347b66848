package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"montecarlo/utils"
)

// ratingResponse is the schema the rating call is constrained to. Only the
// rating field feeds the search; the justification keeps the model honest.
type ratingResponse struct {
	Justification string `json:"justification"`
	Rating        int    `json:"rating"`
}

// OpenAIModel implements Model against any OpenAI-compatible chat
// completion endpoint.
type OpenAIModel struct {
	client *openai.Client
}

func NewOpenAIModel(settings RequestSettings) *OpenAIModel {
	config := openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		config.BaseURL = settings.BaseURL
	}
	return &OpenAIModel{client: openai.NewClientWithConfig(config)}
}

func (o *OpenAIModel) GenerateInitialAnswer(ctx context.Context, prompt string, settings RequestSettings) (string, error) {
	// Greedy decoding so the root answer is reproducible across runs.
	settings.Temperature = 0
	settings.TopP = 1
	return o.complete(ctx, prompt, settings)
}

func (o *OpenAIModel) GenerateFeedback(ctx context.Context, prompt, answer string, settings RequestSettings) (string, error) {
	return o.complete(ctx, critiquePrompt(prompt, answer), settings)
}

func (o *OpenAIModel) GenerateImprovedVersion(ctx context.Context, prompt, answer, feedback string, settings RequestSettings) (string, error) {
	return o.complete(ctx, refinePrompt(prompt, answer, feedback), settings)
}

func (o *OpenAIModel) GenerateRating(ctx context.Context, prompt, answer string, settings RequestSettings) (json.Number, error) {
	schema, err := jsonschema.GenerateSchemaForType(ratingResponse{})
	if err != nil {
		return "", fmt.Errorf("building rating schema: %w", err)
	}

	req := request(ratingPrompt(prompt, answer), settings)
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   "rating",
			Schema: schema,
			Strict: true,
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("rating request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("rating request returned no choices")
	}

	content := resp.Choices[0].Message.Content
	return parseRating(content), nil
}

// parseRating decodes a schema-constrained rating response, falling back to
// the first number in the raw text when the model ignored the schema.
func parseRating(content string) json.Number {
	var rating ratingResponse
	if err := json.Unmarshal([]byte(content), &rating); err != nil {
		log.Warn().Str("content", content).Msg("rating response did not match schema")
		return json.Number(strconv.Itoa(utils.ExtractFirstNumber(content)))
	}
	return json.Number(strconv.Itoa(rating.Rating))
}

func (o *OpenAIModel) complete(ctx context.Context, prompt string, settings RequestSettings) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, request(prompt, settings))
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func request(prompt string, settings RequestSettings) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: settings.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
		TopP:        settings.TopP,
		Seed:        &settings.Seed,
	}
}
