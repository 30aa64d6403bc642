package vision

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"go-civicfix/types"
)

const classifierSystemPrompt = "You are an assistant specializing in triaging photos of urban infrastructure problems for a city maintenance department."

const classifyInstruction = `Classify the infrastructure issue in this photo. Reply with a single JSON object:
{"category": one of GARBAGE_OVERFLOW|WATER_LEAK|POTHOLE|ROAD_DAMAGE|BROKEN_SIDEWALK|STREETLIGHT_OUT|VEGETATION_OVERGROWTH|GRAFFITI|OTHER,
"severity": "LOW"|"MEDIUM"|"HIGH",
"confidence": 0-100,
"estimatedUrgency": "IMMEDIATE"|"URGENT"|"MODERATE"|"LOW",
"departmentResponsible": string,
"estimatedRepairTime": string,
"estimatedCost": string,
"assessment": short free text}`

const compareInstruction = `These two photos were reported as infrastructure issues at nearly the same location. Decide whether they show the same physical issue. Reply with a single JSON object:
{"similarityScore": 0-100, "reasoning": short free text}`

// OpenAIClient implements Classifier and SimilarityOracle against the OpenAI
// chat API. A shared rate limiter caps how hard ingestion can hit the model.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

var (
	_ Classifier       = (*OpenAIClient)(nil)
	_ SimilarityOracle = (*OpenAIClient)(nil)
)

// NewOpenAIClient builds a vision client. rpm caps model calls per minute;
// zero or negative disables the cap.
func NewOpenAIClient(apiKey, model string, rpm int) *OpenAIClient {
	limit := rate.Inf
	burst := 1
	if rpm > 0 {
		limit = rate.Limit(float64(rpm) / 60.0)
		burst = rpm
	}
	return &OpenAIClient{
		client:  openai.NewClient(apiKey),
		model:   model,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (c *OpenAIClient) Classify(ctx context.Context, photo []byte, description string) (types.Classification, error) {
	prompt := classifyInstruction
	if description != "" {
		prompt += "\nReporter description: " + description
	}

	reply, err := c.visionCall(ctx, []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: prompt},
		imagePart(photo),
	})
	if err != nil {
		return types.Classification{}, err
	}

	var cls types.Classification
	if err := extractJSON(reply, &cls); err != nil {
		return types.Classification{}, err
	}
	cls.SchemaVersion = ClassificationSchemaVersion
	return cls, nil
}

func (c *OpenAIClient) Compare(ctx context.Context, a, b []byte) (SimilarityResult, error) {
	reply, err := c.visionCall(ctx, []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: compareInstruction},
		imagePart(a),
		imagePart(b),
	})
	if err != nil {
		return SimilarityResult{}, err
	}

	var result SimilarityResult
	if err := extractJSON(reply, &result); err != nil {
		return SimilarityResult{}, err
	}
	return result, nil
}

func (c *OpenAIClient) visionCall(ctx context.Context, parts []openai.ChatMessagePart) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: classifierSystemPrompt,
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		MaxTokens: 400,
	})
	if err != nil {
		return "", fmt.Errorf("vision model call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func imagePart(photo []byte) openai.ChatMessagePart {
	return openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL:    photoDataURL(photo),
			Detail: openai.ImageURLDetailLow,
		},
	}
}
