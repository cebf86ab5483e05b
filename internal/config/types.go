package config

import (
	"os"
	"slices"
	"strings"
	"time"
)

type HTTPConfig struct {
	proxy *string `koanf:"proxy"`
}

func (c HTTPConfig) GetNoProxy() []string {
	raw := os.Getenv("NO_PROXY")
	if raw == "" {
		raw = os.Getenv("no_proxy")
	}
	if raw == "" {
		return nil
	}
	var hosts []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

func (c HTTPConfig) GetProxy() string {
	if c.proxy != nil && *c.proxy != "" {
		return *c.proxy
	}
	if proxyURL := os.Getenv("HTTPS_PROXY"); proxyURL != "" {
		return proxyURL
	}
	if proxyURL := os.Getenv("https_proxy"); proxyURL != "" {
		return proxyURL
	}
	if proxyURL := os.Getenv("HTTP_PROXY"); proxyURL != "" {
		return proxyURL
	}
	if proxyURL := os.Getenv("http_proxy"); proxyURL != "" {
		return proxyURL
	}
	return ""
}

type LoggingConfig struct {
	LogLevel    string `koanf:"level"`
	WriteInFile bool   `koanf:"write_in_file"`
	FilePath    string `koanf:"file_path"`
}

func (c LoggingConfig) Level() string {
	return strings.ToLower(c.LogLevel)
}

func (c LoggingConfig) IsDebug() bool {
	return c.Level() == "debug" || c.Level() == "trace"
}

type TelegramConfig struct {
	Token       string `koanf:"token"`
	BotUsername string `koanf:"bot_username"`
}

type BotConfig struct {
	Language          string  `koanf:"language"`
	MaxMessageLength  int     `koanf:"max_message_length"`
	CLIMode           bool    `koanf:"cli_mode"`
	EnableStreaming   bool    `koanf:"enable_streaming"`
	StreamingThresh   int     `koanf:"streaming_threshold"`
	StreamingInterval float64 `koanf:"streaming_update_interval"`
}

func (c BotConfig) StreamingUpdateInterval() time.Duration {
	return time.Duration(c.StreamingInterval * float64(time.Second))
}

type MistralConfig struct {
	APIKey          string  `koanf:"api_key"`
	Model           string  `koanf:"model"`
	MaxTokens       int     `koanf:"max_tokens"`
	Temperature     float64 `koanf:"temperature"`
	SystemPrompt    string  `koanf:"system_prompt"`
	EnableWebSearch bool    `koanf:"enable_web_search"`
	HistorySize     int     `koanf:"conversation_history_size"`
	AlwaysAppend    bool    `koanf:"always_append_date"`
}

type GroqConfig struct {
	Enabled     bool    `koanf:"enabled"`
	APIKey      string  `koanf:"api_key"`
	Model       string  `koanf:"model"`
	LargeModel  string  `koanf:"large_model"`
	CodeModel   string  `koanf:"code_model"`
	MaxTokens   int     `koanf:"max_tokens"`
	Temperature float64 `koanf:"temperature"`
}

func (c GroqConfig) IsActive() bool {
	return c.Enabled && c.APIKey != ""
}

type GemmaConfig struct {
	Enabled         bool    `koanf:"enabled"`
	APIKey          string  `koanf:"api_key"`
	Model           string  `koanf:"model"`
	MaxOutputTokens int     `koanf:"max_output_tokens"`
	Temperature     float64 `koanf:"temperature"`
}

func (c GemmaConfig) IsActive() bool {
	return c.Enabled && c.APIKey != ""
}

type SearchConfig struct {
	GoogleAPIKey         string `koanf:"google_api_key"`
	GoogleSearchEngineID string `koanf:"google_search_engine_id"`
	SearxNGInstance      string `koanf:"searxng_instance"`
	ResultCount          int    `koanf:"result_count"`
}

func (c SearchConfig) GoogleConfigured() bool {
	return c.GoogleAPIKey != "" && c.GoogleSearchEngineID != ""
}

type ReactionsConfig struct {
	Enabled      bool              `koanf:"enabled"`
	Model        string            `koanf:"model"`
	SystemPrompt string            `koanf:"system_prompt"`
	Probability  float64           `koanf:"probability"`
	MinWords     int               `koanf:"min_words"`
	Moods        map[string]string `koanf:"moods"`
}

// defaultReactionMoods maps mood words to emoji from the set Telegram
// accepts for message reactions.
func defaultReactionMoods() map[string]string {
	return map[string]string{
		"positive":   "👍",
		"negative":   "👎",
		"neutral":    "👌",
		"funny":      "😁",
		"sad":        "😢",
		"angry":      "🤬",
		"excited":    "🎉",
		"thoughtful": "🤔",
	}
}

func defaultReactionSystemPrompt() string {
	return "Analyze the sentiment and mood of the user's message. " +
		"Respond with ONLY ONE word from this list: " +
		"positive, negative, neutral, funny, sad, angry, excited, thoughtful. " +
		"Do not provide explanations, just the mood word."
}

type AdminConfig struct {
	UserIDs []int64 `koanf:"user_ids"`
}

func (c AdminConfig) IsAdmin(userID int64) bool {
	return slices.Contains(c.UserIDs, userID)
}
