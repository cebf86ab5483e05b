package ai

import (
	"context"
	"net/http"

	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/logger"
)

const mistralBaseURL = "https://api.mistral.ai/v1"

// MistralClient is the primary provider. It picks a concrete Mistral model
// per request via the ModelSelector unless the request pins one.
type MistralClient struct {
	api      *OpenAICompatibleClient
	cfg      config.MistralConfig
	selector *ModelSelector
	logger   logger.Logger
}

func NewMistralClient(
	cfg config.MistralConfig,
	selector *ModelSelector,
	log logger.Logger,
	httpClient *http.Client,
	streamHTTPClient *http.Client,
) *MistralClient {
	return &MistralClient{
		api:      NewOpenAICompatibleClient("mistral", mistralBaseURL, cfg.APIKey, log, httpClient, streamHTTPClient),
		cfg:      cfg,
		selector: selector,
		logger:   log,
	}
}

func (c *MistralClient) Name() string {
	return "mistral"
}

func (c *MistralClient) Generate(ctx context.Context, req Request) (*Response, error) {
	return c.api.Generate(ctx, c.prepare(req))
}

func (c *MistralClient) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	return c.api.GenerateStream(ctx, c.prepare(req))
}

func (c *MistralClient) prepare(req Request) Request {
	if req.Model == "" {
		req.Model = c.selector.Select(lastUserContent(req.Messages), estimateTokens(req.Messages))
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.cfg.MaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = c.cfg.Temperature
	}
	c.logger.WithField("model", req.Model).Debug("Mistral request")
	return req
}
