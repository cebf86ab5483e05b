package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/muratoffalex/telechat/internal/logger"
)

// OpenAICompatibleClient speaks the chat-completions dialect shared by
// Mistral and Groq. Provider-specific clients wrap it with model selection
// and configuration.
type OpenAICompatibleClient struct {
	name       string
	logger     logger.Logger
	httpClient *baseHTTPClient
	// streamClient has no overall timeout so long generations are not cut off.
	streamClient *baseHTTPClient
}

func NewOpenAICompatibleClient(
	name string,
	baseURL string,
	apiKey string,
	log logger.Logger,
	httpClient *http.Client,
	streamHTTPClient *http.Client,
) *OpenAICompatibleClient {
	return &OpenAICompatibleClient{
		name:         name,
		logger:       log,
		httpClient:   newBaseHTTPClient(httpClient, baseURL, apiKey, log),
		streamClient: newBaseHTTPClient(streamHTTPClient, baseURL, apiKey, log),
	}
}

func (c *OpenAICompatibleClient) Name() string {
	return c.name
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type completionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type annotation struct {
	Type        string `json:"type"`
	URLCitation struct {
		URL string `json:"url"`
	} `json:"url_citation"`
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content     string       `json:"content"`
			Annotations []annotation `json:"annotations"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage completionUsage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content     string       `json:"content"`
			Annotations []annotation `json:"annotations"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *completionUsage `json:"usage"`
}

func (c *OpenAICompatibleClient) Generate(ctx context.Context, req Request) (*Response, error) {
	body, perr := c.doRequest(ctx, c.httpClient, req, false, nil)
	if perr != nil {
		return nil, perr
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Model: req.Model, Err: err, Message: "failed to read response body"}
	}

	var result completionResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &ProviderError{Provider: c.name, Model: req.Model, Err: err, Message: "failed to decode response"}
	}

	// Some providers report errors inside a 200 OK body.
	if result.Error != nil {
		return nil, &ProviderError{Provider: c.name, Model: req.Model, Message: result.Error.Message}
	}
	if len(result.Choices) == 0 {
		return nil, &ProviderError{Provider: c.name, Model: req.Model, Message: "no choices in response"}
	}

	model := result.Model
	if model == "" {
		model = req.Model
	}

	return &Response{
		Content:      result.Choices[0].Message.Content,
		Model:        model,
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
	}, nil
}

func (c *OpenAICompatibleClient) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	body, perr := c.doRequest(ctx, c.streamClient, req, true, map[string]string{
		"Accept": "text/event-stream",
	})
	if perr != nil {
		return nil, perr
	}

	chunkCh := make(chan StreamChunk)
	go func() {
		defer close(chunkCh)
		defer body.Close()

		var accumulated strings.Builder
		var sourceURLs []string
		reader := bufio.NewReader(body)

		emit := func(chunk StreamChunk) bool {
			select {
			case chunkCh <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		finalize := func() {
			emit(StreamChunk{
				Accumulated: accumulated.String(),
				Final:       true,
				SourceURLs:  sourceURLs,
			})
		}

		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				if err == io.EOF {
					finalize()
				} else if ctx.Err() == nil {
					c.logger.WithError(err).WithField("provider", c.name).Error("stream read error")
					emit(StreamChunk{
						Accumulated: accumulated.String(),
						Err:         &ProviderError{Provider: c.name, Model: req.Model, Err: err, Message: "stream read failed"},
					})
				}
				return
			}

			data, ok := strings.CutPrefix(strings.TrimRight(string(line), "\r\n"), "data: ")
			if !ok {
				continue
			}
			if data == "[DONE]" {
				finalize()
				return
			}

			var event streamEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				c.logger.WithError(err).WithField("data", data).Error("stream decode error")
				continue
			}
			if len(event.Choices) == 0 {
				continue
			}

			choice := event.Choices[0]
			for _, a := range choice.Delta.Annotations {
				if a.Type == "url_citation" && a.URLCitation.URL != "" {
					sourceURLs = append(sourceURLs, a.URLCitation.URL)
				}
			}

			if choice.Delta.Content == "" {
				continue
			}
			accumulated.WriteString(choice.Delta.Content)
			if !emit(StreamChunk{
				Delta:       choice.Delta.Content,
				Accumulated: accumulated.String(),
			}) {
				return
			}
		}
	}()

	return chunkCh, nil
}

func (c *OpenAICompatibleClient) doRequest(
	ctx context.Context,
	client *baseHTTPClient,
	req Request,
	stream bool,
	headers map[string]string,
) (io.ReadCloser, *ProviderError) {
	payload := completionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Model: req.Model, Err: err, Message: "marshal request failed"}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Model: req.Model, Err: err, Message: "create request failed"}
	}
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Model: req.Model, Err: err, Message: "network request failed"}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		responseBody, _ := io.ReadAll(resp.Body)

		perr := &ProviderError{
			Provider:   c.name,
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP request failed with status code: %d", resp.StatusCode),
		}

		var providerError struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if len(responseBody) > 0 {
			json.Unmarshal(responseBody, &providerError)
			if providerError.Error.Message != "" {
				perr.Message = providerError.Error.Message
			}
		}
		return nil, perr
	}

	return resp.Body, nil
}
