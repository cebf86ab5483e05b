// Package search queries the web through several providers with fallback:
// Google Custom Search first when configured, then public SearXNG instances,
// then DuckDuckGo HTML scraping as the last resort.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/logger"
)

const (
	googleSearchURL = "https://www.googleapis.com/customsearch/v1"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/124.0.0.0 Safari/537.36"

	maxRetries  = 2
	backoffBase = time.Second
)

var defaultSearxNGInstances = []string{
	"https://searx.be",
	"https://search.sapti.me",
	"https://searxng.ch",
	"https://search.bus-hit.me",
	"https://searx.envs.net",
}

type provider interface {
	name() string
	search(ctx context.Context, query string, count int) (Result, error)
}

// Client runs a query through the configured providers in order until one
// returns results. A failure or an empty result moves on to the next
// provider; when all fail the zero Result is returned without error.
type Client struct {
	providers   []provider
	resultCount int
	logger      logger.Logger
}

func NewClient(cfg config.SearchConfig, httpClient *http.Client, log logger.Logger) *Client {
	var providers []provider

	if cfg.GoogleConfigured() {
		providers = append(providers, &googleProvider{
			apiKey:   cfg.GoogleAPIKey,
			engineID: cfg.GoogleSearchEngineID,
			client:   httpClient,
			logger:   log,
			sleep:    time.Sleep,
		})
	}

	instances := defaultSearxNGInstances
	if cfg.SearxNGInstance != "" && (len(instances) == 0 || instances[0] != cfg.SearxNGInstance) {
		instances = append([]string{cfg.SearxNGInstance}, instances...)
	}
	providers = append(providers,
		&searxNGProvider{
			instances: instances,
			client:    httpClient,
			logger:    log,
			sleep:     time.Sleep,
		},
		&duckDuckGoProvider{
			ddg:    NewDuckDuckGo(httpClient, 0),
			logger: log,
		},
	)

	count := cfg.ResultCount
	if count <= 0 {
		count = 3
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.name())
	}
	log.WithField("providers", names).Info("Web search initialized")

	return &Client{providers: providers, resultCount: count, logger: log}
}

// Search tries each provider in order and returns the first non-empty result.
func (c *Client) Search(ctx context.Context, query string) Result {
	for _, p := range c.providers {
		result, err := p.search(ctx, query, c.resultCount)
		if err != nil {
			c.logger.WithError(err).WithField("provider", p.name()).Warn("Search provider failed")
			continue
		}
		if !result.Empty() {
			c.logger.WithFields(logger.Fields{
				"provider": p.name(),
				"urls":     len(result.URLs),
			}).Info("Search succeeded")
			return result
		}
	}
	c.logger.WithField("query", query).Warn("All search providers failed or returned nothing")
	return Result{}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// getWithBackoff issues a GET and retries with exponential backoff on
// temporary failure codes. The caller owns the response body on success.
func getWithBackoff(ctx context.Context, client *http.Client, reqURL string, headers map[string]string, providerName string, log logger.Logger, sleep func(time.Duration)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		resp.Body.Close()
		lastErr = fmt.Errorf("%s returned status %d: %s", providerName, resp.StatusCode, snippet)

		if !retryableStatus(resp.StatusCode) || attempt == maxRetries {
			return nil, lastErr
		}

		delay := backoffBase * (1 << attempt)
		log.WithFields(logger.Fields{
			"provider": providerName,
			"status":   resp.StatusCode,
			"attempt":  attempt + 1,
			"delay":    delay.String(),
		}).Warn("Retrying search request")
		sleep(delay)
	}
	return nil, lastErr
}

type searchItem struct {
	title   string
	snippet string
	link    string
}

// formatItems renders items as a numbered block and collects unique URLs.
func formatItems(items []searchItem, count int) Result {
	if len(items) > count {
		items = items[:count]
	}

	var blocks []string
	var urls []string
	seen := make(map[string]bool)
	for i, item := range items {
		blocks = append(blocks, fmt.Sprintf("%d. %s\n%s\nSource: %s", i+1, item.title, item.snippet, item.link))
		if item.link != "" && !seen[item.link] {
			seen[item.link] = true
			urls = append(urls, item.link)
		}
	}

	if len(blocks) == 0 {
		return Result{}
	}
	return Result{Text: strings.Join(blocks, "\n\n"), URLs: urls}
}

type googleProvider struct {
	apiKey   string
	engineID string
	client   *http.Client
	logger   logger.Logger
	sleep    func(time.Duration)
	baseURL  string
}

func (p *googleProvider) name() string { return "google" }

func (p *googleProvider) search(ctx context.Context, query string, count int) (Result, error) {
	base := p.baseURL
	if base == "" {
		base = googleSearchURL
	}

	params := url.Values{
		"key": {p.apiKey},
		"cx":  {p.engineID},
		"q":   {query},
		"num": {fmt.Sprintf("%d", min(count, 10))},
	}

	resp, err := getWithBackoff(ctx, p.client, base+"?"+params.Encode(), nil, p.name(), p.logger, p.sleep)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	var data struct {
		Items []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Result{}, fmt.Errorf("failed to decode google response: %w", err)
	}

	items := make([]searchItem, 0, len(data.Items))
	for _, it := range data.Items {
		items = append(items, searchItem{title: it.Title, snippet: it.Snippet, link: it.Link})
	}
	return formatItems(items, count), nil
}

type searxNGProvider struct {
	instances []string
	client    *http.Client
	logger    logger.Logger
	sleep     func(time.Duration)
}

func (p *searxNGProvider) name() string { return "searxng" }

func (p *searxNGProvider) search(ctx context.Context, query string, count int) (Result, error) {
	var lastErr error
	for _, instance := range p.instances {
		result, err := p.searchInstance(ctx, instance, query, count)
		if err != nil {
			p.logger.WithError(err).WithField("instance", instance).Warn("SearXNG instance failed, trying next")
			lastErr = err
			continue
		}
		if !result.Empty() {
			return result, nil
		}
	}
	if lastErr != nil {
		return Result{}, lastErr
	}
	return Result{}, nil
}

func (p *searxNGProvider) searchInstance(ctx context.Context, instance, query string, count int) (Result, error) {
	params := url.Values{
		"q":          {query},
		"format":     {"json"},
		"safesearch": {"0"},
	}
	headers := map[string]string{"User-Agent": browserUserAgent}

	resp, err := getWithBackoff(ctx, p.client, instance+"/search?"+params.Encode(), headers, p.name(), p.logger, p.sleep)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	var data struct {
		Results []struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			URL     string `json:"url"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Result{}, fmt.Errorf("failed to decode searxng response: %w", err)
	}

	items := make([]searchItem, 0, len(data.Results))
	for _, r := range data.Results {
		items = append(items, searchItem{title: r.Title, snippet: r.Content, link: r.URL})
	}
	return formatItems(items, count), nil
}

type duckDuckGoProvider struct {
	ddg    *DuckDuckGo
	logger logger.Logger
}

func (p *duckDuckGoProvider) name() string { return "duckduckgo" }

func (p *duckDuckGoProvider) search(ctx context.Context, query string, count int) (Result, error) {
	results, err := p.ddg.Text(ctx, query, count)
	if err != nil {
		return Result{}, err
	}

	items := make([]searchItem, 0, len(results))
	for _, r := range results {
		items = append(items, searchItem{title: r.Title, snippet: r.Body, link: r.Href})
	}
	return formatItems(items, count), nil
}
