// Package sentiment предоставляет клиенты внешних классификаторов тональности текста.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmeshcher/customer-engagement/internal/model"
)

// ErrEmptyResult возвращается, если классификатор не вернул ни одной метки.
var ErrEmptyResult = errors.New("classifier returned no labels")

// Client обращается к HTTP-сервису инференса в формате Hugging Face text-classification
// (модель конвейера sentiment-analysis).
type Client struct {
	url        string
	token      string
	httpClient *http.Client
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// NewClient создаёт клиент сервиса инференса по указанному адресу модели.
// Пустой token отключает заголовок Authorization.
func NewClient(url, token string) *Client {
	return &Client{
		url:   strings.TrimRight(url, "/"),
		token: token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Classify возвращает метку с наибольшей оценкой для текста.
func (c *Client) Classify(ctx context.Context, text string) (model.Mood, error) {
	if c == nil || c.url == "" {
		return model.Mood{}, fmt.Errorf("sentiment client not configured")
	}

	body, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return model.Mood{}, fmt.Errorf("marshal request: %w", err)
	}

	url := c.url
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.Mood{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Mood{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Mood{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return model.Mood{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return decodeLabels(raw)
}

// decodeLabels разбирает ответ вида [[{label, score}, ...]] или [{label, score}, ...].
func decodeLabels(raw []byte) (model.Mood, error) {
	var nested [][]model.Mood
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return model.Mood{}, ErrEmptyResult
		}
		return best(nested[0])
	}

	var flat []model.Mood
	if err := json.Unmarshal(raw, &flat); err != nil {
		return model.Mood{}, fmt.Errorf("decode response: %w", err)
	}
	return best(flat)
}

func best(labels []model.Mood) (model.Mood, error) {
	if len(labels) == 0 {
		return model.Mood{}, ErrEmptyResult
	}

	top := labels[0]
	for _, l := range labels[1:] {
		if l.Score > top.Score {
			top = l
		}
	}
	return top, nil
}
