package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const ddgHTMLURL = "https://html.duckduckgo.com/html"

// TextResult is a single organic DuckDuckGo result.
type TextResult struct {
	Title string
	Href  string
	Body  string
}

// DuckDuckGo scrapes the HTML endpoint, which needs no API key. Requests are
// spaced by rateLimit to stay under the anonymous-traffic threshold.
type DuckDuckGo struct {
	client    *http.Client
	rateLimit time.Duration
	htmlURL   string
}

func NewDuckDuckGo(client *http.Client, rateLimit time.Duration) *DuckDuckGo {
	if rateLimit == 0 {
		rateLimit = time.Second
	}
	return &DuckDuckGo{
		client:    client,
		rateLimit: rateLimit,
		htmlURL:   ddgHTMLURL,
	}
}

func (d *DuckDuckGo) post(ctx context.Context, payload url.Values) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(d.rateLimit):
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.htmlURL, strings.NewReader(payload.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "https://duckduckgo.com/")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("duckduckgo ratelimit: status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("duckduckgo failed: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Text returns up to maxResults organic results for keywords, following
// pagination when one page is not enough.
func (d *DuckDuckGo) Text(ctx context.Context, keywords string, maxResults int) ([]TextResult, error) {
	if keywords == "" {
		return nil, errors.New("keywords is mandatory")
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	payload := url.Values{
		"q": []string{keywords},
		"b": []string{""},
	}

	cache := make(map[string]bool)
	var results []TextResult

	for range 5 {
		resp, err := d.post(ctx, payload)
		if err != nil {
			return nil, err
		}

		if bytes.Contains(resp, []byte("No results.")) {
			return results, nil
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp))
		if err != nil {
			return nil, err
		}

		doc.Find("div.result").Each(func(i int, s *goquery.Selection) {
			if len(results) >= maxResults {
				return
			}
			link := s.Find("a.result__a")
			href, exists := link.Attr("href")
			if !exists {
				return
			}

			if href != "" && !cache[href] &&
				!strings.HasPrefix(href, "http://www.google.com/search?q=") &&
				!strings.HasPrefix(href, "https://duckduckgo.com/y.js?ad_domain") {

				cache[href] = true
				results = append(results, TextResult{
					Title: collapseSpace(link.Text()),
					Href:  unescapeURL(href),
					Body:  collapseSpace(s.Find("a.result__snippet").Text()),
				})
			}
		})

		if len(results) >= maxResults {
			break
		}

		nextPage := doc.Find("div.nav-link").Last()
		if nextPage.Length() == 0 {
			break
		}

		nextPage.Find("input[type=hidden]").Each(func(i int, s *goquery.Selection) {
			name, _ := s.Attr("name")
			value, _ := s.Attr("value")
			if name != "" {
				payload.Set(name, value)
			}
		})
	}

	return results, nil
}

func collapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func unescapeURL(urlStr string) string {
	if urlStr == "" {
		return ""
	}
	unescaped, err := url.QueryUnescape(urlStr)
	if err != nil {
		return urlStr
	}
	return strings.ReplaceAll(unescaped, " ", "+")
}
