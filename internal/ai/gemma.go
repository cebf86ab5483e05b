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

	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/logger"
)

const gemmaBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GemmaClient talks to the Google Generative Language API, which uses its
// own request shape instead of the chat-completions dialect.
type GemmaClient struct {
	cfg          config.GemmaConfig
	logger       logger.Logger
	httpClient   *baseHTTPClient
	streamClient *baseHTTPClient
}

func NewGemmaClient(
	cfg config.GemmaConfig,
	log logger.Logger,
	httpClient *http.Client,
	streamHTTPClient *http.Client,
) *GemmaClient {
	return &GemmaClient{
		cfg:          cfg,
		logger:       log,
		httpClient:   newBaseHTTPClient(httpClient, gemmaBaseURL, "", log),
		streamClient: newBaseHTTPClient(streamHTTPClient, gemmaBaseURL, "", log),
	}
}

func (c *GemmaClient) Name() string {
	return "gemma"
}

type gemmaPart struct {
	Text string `json:"text"`
}

type gemmaContent struct {
	Role  string      `json:"role,omitempty"`
	Parts []gemmaPart `json:"parts"`
}

type gemmaRequest struct {
	Contents          []gemmaContent `json:"contents"`
	SystemInstruction *gemmaContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
		Temperature     float64 `json:"temperature,omitempty"`
	} `json:"generationConfig"`
}

type gemmaResponse struct {
	Candidates []struct {
		Content gemmaContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *GemmaClient) Generate(ctx context.Context, req Request) (*Response, error) {
	model := c.model(req)
	body, perr := c.doRequest(ctx, c.httpClient, fmt.Sprintf("models/%s:generateContent", model), req, nil)
	if perr != nil {
		return nil, perr
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Model: model, Err: err, Message: "failed to read response body"}
	}

	var result gemmaResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &ProviderError{Provider: c.Name(), Model: model, Err: err, Message: "failed to decode response"}
	}
	if result.Error != nil {
		return nil, &ProviderError{Provider: c.Name(), Model: model, Message: result.Error.Message}
	}
	if len(result.Candidates) == 0 {
		return nil, &ProviderError{Provider: c.Name(), Model: model, Message: "no candidates in response"}
	}

	return &Response{
		Content:      joinParts(result.Candidates[0].Content.Parts),
		Model:        model,
		InputTokens:  result.UsageMetadata.PromptTokenCount,
		OutputTokens: result.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func (c *GemmaClient) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	model := c.model(req)
	endpoint := fmt.Sprintf("models/%s:streamGenerateContent?alt=sse", model)
	body, perr := c.doRequest(ctx, c.streamClient, endpoint, req, map[string]string{
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
		reader := bufio.NewReader(body)

		emit := func(chunk StreamChunk) bool {
			select {
			case chunkCh <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				if err == io.EOF {
					emit(StreamChunk{Accumulated: accumulated.String(), Final: true})
				} else if ctx.Err() == nil {
					c.logger.WithError(err).Error("gemma stream read error")
					emit(StreamChunk{
						Accumulated: accumulated.String(),
						Err:         &ProviderError{Provider: c.Name(), Model: model, Err: err, Message: "stream read failed"},
					})
				}
				return
			}

			data, ok := strings.CutPrefix(strings.TrimRight(string(line), "\r\n"), "data: ")
			if !ok {
				continue
			}

			var event gemmaResponse
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				c.logger.WithError(err).WithField("data", data).Error("gemma stream decode error")
				continue
			}
			if len(event.Candidates) == 0 {
				continue
			}

			delta := joinParts(event.Candidates[0].Content.Parts)
			if delta == "" {
				continue
			}
			accumulated.WriteString(delta)
			if !emit(StreamChunk{Delta: delta, Accumulated: accumulated.String()}) {
				return
			}
		}
	}()

	return chunkCh, nil
}

func (c *GemmaClient) model(req Request) string {
	if req.Model != "" && strings.HasPrefix(req.Model, "gemma") {
		return req.Model
	}
	return c.cfg.Model
}

func (c *GemmaClient) doRequest(
	ctx context.Context,
	client *baseHTTPClient,
	endpoint string,
	req Request,
	headers map[string]string,
) (io.ReadCloser, *ProviderError) {
	payload := c.adaptRequest(req)
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: err, Message: "marshal request failed"}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: err, Message: "create request failed"}
	}
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: err, Message: "network request failed"}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		responseBody, _ := io.ReadAll(resp.Body)

		perr := &ProviderError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP request failed with status code: %d", resp.StatusCode),
		}
		var result gemmaResponse
		if len(responseBody) > 0 {
			json.Unmarshal(responseBody, &result)
			if result.Error != nil && result.Error.Message != "" {
				perr.Message = result.Error.Message
			}
		}
		return nil, perr
	}

	return resp.Body, nil
}

// adaptRequest converts the chat message list into the Gemini wire shape:
// the system prompt moves to systemInstruction and assistant turns become
// "model" turns.
func (c *GemmaClient) adaptRequest(req Request) gemmaRequest {
	var payload gemmaRequest

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			payload.SystemInstruction = &gemmaContent{
				Parts: []gemmaPart{{Text: msg.Content}},
			}
		case RoleAssistant:
			payload.Contents = append(payload.Contents, gemmaContent{
				Role:  "model",
				Parts: []gemmaPart{{Text: msg.Content}},
			})
		default:
			payload.Contents = append(payload.Contents, gemmaContent{
				Role:  "user",
				Parts: []gemmaPart{{Text: msg.Content}},
			})
		}
	}

	payload.GenerationConfig.MaxOutputTokens = req.MaxTokens
	if payload.GenerationConfig.MaxOutputTokens == 0 {
		payload.GenerationConfig.MaxOutputTokens = c.cfg.MaxOutputTokens
	}
	payload.GenerationConfig.Temperature = req.Temperature
	if payload.GenerationConfig.Temperature == 0 {
		payload.GenerationConfig.Temperature = c.cfg.Temperature
	}

	return payload
}

func joinParts(parts []gemmaPart) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
