package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/mmeshcher/customer-engagement/internal/model"
)

const classifyPrompt = `Classify the sentiment of the customer feedback.
Answer with a single JSON object {"label": "POSITIVE" or "NEGATIVE", "score": confidence between 0 and 1} and nothing else.`

// OpenAIClassifier определяет тональность через OpenAI Chat Completions.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier создаёт классификатор с ключом API и именем модели.
func NewOpenAIClassifier(apiKey, modelName string) *OpenAIClassifier {
	return NewOpenAIClassifierWithConfig(openai.DefaultConfig(apiKey), modelName)
}

// NewOpenAIClassifierWithConfig создаёт классификатор с произвольной конфигурацией клиента.
func NewOpenAIClassifierWithConfig(cfg openai.ClientConfig, modelName string) *OpenAIClassifier {
	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(cfg),
		model:  modelName,
	}
}

// Classify возвращает метку тональности текста и уверенность модели.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (model.Mood, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: classifyPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0,
		MaxTokens:   50,
	})
	if err != nil {
		return model.Mood{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return model.Mood{}, ErrEmptyResult
	}

	return parseMood(resp.Choices[0].Message.Content)
}

func parseMood(content string) (model.Mood, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var mood model.Mood
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &mood); err != nil {
		return model.Mood{}, fmt.Errorf("decode completion: %w", err)
	}
	if mood.Label == "" {
		return model.Mood{}, ErrEmptyResult
	}

	mood.Label = strings.ToUpper(mood.Label)
	return mood, nil
}
