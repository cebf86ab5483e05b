package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/logger"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqClient is a drop-in alternative to MistralClient used by the router
// for load balancing. Requests are planned in Mistral model terms and
// translated to the configured Groq equivalents.
type GroqClient struct {
	api      *OpenAICompatibleClient
	cfg      config.GroqConfig
	selector *ModelSelector
	logger   logger.Logger
}

func NewGroqClient(
	cfg config.GroqConfig,
	selector *ModelSelector,
	log logger.Logger,
	httpClient *http.Client,
	streamHTTPClient *http.Client,
) *GroqClient {
	return &GroqClient{
		api:      NewOpenAICompatibleClient("groq", groqBaseURL, cfg.APIKey, log, httpClient, streamHTTPClient),
		cfg:      cfg,
		selector: selector,
		logger:   log,
	}
}

func (c *GroqClient) Name() string {
	return "groq"
}

func (c *GroqClient) Generate(ctx context.Context, req Request) (*Response, error) {
	return c.api.Generate(ctx, c.prepare(req))
}

func (c *GroqClient) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	return c.api.GenerateStream(ctx, c.prepare(req))
}

func (c *GroqClient) prepare(req Request) Request {
	selected := req.Model
	if selected == "" {
		selected = c.selector.Select(lastUserContent(req.Messages), estimateTokens(req.Messages))
	}
	req.Model = c.mapModel(selected)
	if req.MaxTokens == 0 {
		req.MaxTokens = c.cfg.MaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = c.cfg.Temperature
	}
	c.logger.WithFields(logger.Fields{
		"selected": selected,
		"model":    req.Model,
	}).Debug("Groq request")
	return req
}

// mapModel translates a Mistral model choice to its Groq counterpart. Model
// names already belonging to Groq pass through unchanged.
func (c *GroqClient) mapModel(model string) string {
	switch model {
	case ModelCodestral:
		return c.cfg.CodeModel
	case ModelMistralLarge, "mistral-medium-latest":
		return c.cfg.LargeModel
	}
	if !strings.HasPrefix(model, "mistral") && !strings.HasPrefix(model, "pixtral") {
		return model
	}
	return c.cfg.Model
}
