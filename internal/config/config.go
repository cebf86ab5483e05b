package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	TELEGRAM_TOKEN        = "telegram.token"
	TELEGRAM_BOT_USERNAME = "telegram.bot_username"

	BOT_LANGUAGE                  = "bot.language"
	BOT_MAX_MESSAGE_LENGTH        = "bot.max_message_length"
	BOT_CLI_MODE                  = "bot.cli_mode"
	BOT_ENABLE_STREAMING          = "bot.enable_streaming"
	BOT_STREAMING_THRESHOLD       = "bot.streaming_threshold"
	BOT_STREAMING_UPDATE_INTERVAL = "bot.streaming_update_interval"

	MISTRAL_API_KEY            = "mistral.api_key"
	MISTRAL_MODEL              = "mistral.model"
	MISTRAL_MAX_TOKENS         = "mistral.max_tokens"
	MISTRAL_TEMPERATURE        = "mistral.temperature"
	MISTRAL_SYSTEM_PROMPT      = "mistral.system_prompt"
	MISTRAL_ENABLE_WEB_SEARCH  = "mistral.enable_web_search"
	MISTRAL_HISTORY_SIZE       = "mistral.conversation_history_size"
	MISTRAL_ALWAYS_APPEND_DATE = "mistral.always_append_date"

	GROQ_ENABLED     = "groq.enabled"
	GROQ_API_KEY     = "groq.api_key"
	GROQ_MODEL       = "groq.model"
	GROQ_LARGE_MODEL = "groq.large_model"
	GROQ_CODE_MODEL  = "groq.code_model"
	GROQ_MAX_TOKENS  = "groq.max_tokens"
	GROQ_TEMPERATURE = "groq.temperature"

	GEMMA_ENABLED           = "gemma.enabled"
	GEMMA_API_KEY           = "gemma.api_key"
	GEMMA_MODEL             = "gemma.model"
	GEMMA_MAX_OUTPUT_TOKENS = "gemma.max_output_tokens"
	GEMMA_TEMPERATURE       = "gemma.temperature"

	SEARCH_GOOGLE_API_KEY   = "search.google_api_key"
	SEARCH_GOOGLE_ENGINE_ID = "search.google_search_engine_id"
	SEARCH_SEARXNG_INSTANCE = "search.searxng_instance"
	SEARCH_RESULT_COUNT     = "search.result_count"

	REACTIONS_ENABLED     = "reactions.enabled"
	REACTIONS_MODEL       = "reactions.model"
	REACTIONS_PROBABILITY = "reactions.probability"
	REACTIONS_MIN_WORDS   = "reactions.min_words"

	ADMIN_USER_IDS = "admin.user_ids"

	HTTP_PROXY            = "http.proxy"
	DATABASE_DSN          = "database.dsn"
	LOGGING_LEVEL         = "logging.level"
	LOGGING_WRITE_IN_FILE = "logging.write_in_file"
	LOGGING_FILE_PATH     = "logging.file_path"
)

var defaultSQLiteParams = map[string]string{
	"_journal":      "WAL",
	"_busy_timeout": "10000",
	"_synchronous":  "NORMAL",
	"_cache":        "shared",
}

type Config struct {
	k         *koanf.Koanf
	configDir string
}

var (
	configPath string
	cliMode    bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.BoolVar(&cliMode, "cli", false, "Run an interactive terminal chat instead of the bot")
}

func Load() (*Config, error) {
	k := koanf.New(".")

	k.Load(confmap.Provider(defaultValues(), "."), nil)

	var configDir string
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", path, err)
			}
			configDir = filepath.Dir(path)
			break
		}
	}

	k.Load(env.Provider("TELECHAT_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "TELECHAT_")),
			"_", ".",
		)
	}), nil)

	if cliMode {
		if err := k.Set(BOT_CLI_MODE, true); err != nil {
			return nil, err
		}
	}

	cfg := &Config{k: k, configDir: configDir}

	if !cfg.Bot().CLIMode && cfg.Telegram().Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if cfg.Mistral().APIKey == "" {
		return nil, fmt.Errorf("mistral api key is required")
	}

	return cfg, nil
}

// NewFromMap builds a Config from literal values on top of the defaults,
// bypassing files and environment. Intended for tests.
func NewFromMap(values map[string]any) *Config {
	k := koanf.New(".")
	k.Load(confmap.Provider(defaultValues(), "."), nil)
	k.Load(confmap.Provider(values, "."), nil)
	return &Config{k: k}
}

func defaultValues() map[string]any {
	return map[string]any{
		TELEGRAM_TOKEN:                "",
		TELEGRAM_BOT_USERNAME:         "",
		BOT_LANGUAGE:                  "en",
		BOT_MAX_MESSAGE_LENGTH:        4096,
		BOT_CLI_MODE:                  false,
		BOT_ENABLE_STREAMING:          true,
		BOT_STREAMING_THRESHOLD:       100,
		BOT_STREAMING_UPDATE_INTERVAL: 1.0,
		MISTRAL_MODEL:                 "mistral-small-latest",
		MISTRAL_MAX_TOKENS:            1024,
		MISTRAL_TEMPERATURE:           0.7,
		MISTRAL_ENABLE_WEB_SEARCH:     false,
		MISTRAL_HISTORY_SIZE:          10,
		MISTRAL_ALWAYS_APPEND_DATE:    false,
		GROQ_ENABLED:                  false,
		GROQ_MODEL:                    "llama-3.1-8b-instant",
		GROQ_LARGE_MODEL:              "llama-3.3-70b-versatile",
		GROQ_CODE_MODEL:               "llama-3.3-70b-versatile",
		GROQ_MAX_TOKENS:               1024,
		GROQ_TEMPERATURE:              0.7,
		GEMMA_ENABLED:                 false,
		GEMMA_MODEL:                   "gemma-3-27b-it",
		GEMMA_MAX_OUTPUT_TOKENS:       1024,
		GEMMA_TEMPERATURE:             0.7,
		SEARCH_SEARXNG_INSTANCE:       "https://searx.be",
		SEARCH_RESULT_COUNT:           3,
		REACTIONS_ENABLED:             false,
		REACTIONS_MODEL:               "mistral-small-latest",
		REACTIONS_PROBABILITY:         0.3,
		REACTIONS_MIN_WORDS:           5,
		DATABASE_DSN:                  "data/telechat.db?_journal=WAL&_busy_timeout=5000&_synchronous=NORMAL&_cache=shared",
		LOGGING_LEVEL:                 "info",
		LOGGING_WRITE_IN_FILE:         false,
	}
}

// ConfigDir is the directory the loaded config file was found in. The access
// list (allowed_users.yaml) lives next to it.
func (c *Config) ConfigDir() string {
	if c.configDir != "" {
		return c.configDir
	}
	return "."
}

func (c *Config) AccessFilePath() string {
	return filepath.Join(c.ConfigDir(), "allowed_users.yaml")
}

func (c *Config) Telegram() TelegramConfig {
	return TelegramConfig{
		Token:       c.k.String(TELEGRAM_TOKEN),
		BotUsername: strings.TrimPrefix(c.k.String(TELEGRAM_BOT_USERNAME), "@"),
	}
}

func (c *Config) Bot() BotConfig {
	var cfg BotConfig
	if err := c.k.Unmarshal("bot", &cfg); err != nil {
		log.Fatalf("botConfig unmarshal error: %v", err)
	}
	return cfg
}

func (c *Config) Mistral() MistralConfig {
	var cfg MistralConfig
	if err := c.k.Unmarshal("mistral", &cfg); err != nil {
		log.Fatalf("mistralConfig unmarshal error: %v", err)
	}
	return cfg
}

func (c *Config) Groq() GroqConfig {
	var cfg GroqConfig
	if err := c.k.Unmarshal("groq", &cfg); err != nil {
		log.Fatalf("groqConfig unmarshal error: %v", err)
	}
	return cfg
}

func (c *Config) Gemma() GemmaConfig {
	var cfg GemmaConfig
	if err := c.k.Unmarshal("gemma", &cfg); err != nil {
		log.Fatalf("gemmaConfig unmarshal error: %v", err)
	}
	return cfg
}

func (c *Config) Search() SearchConfig {
	var cfg SearchConfig
	if err := c.k.Unmarshal("search", &cfg); err != nil {
		log.Fatalf("searchConfig unmarshal error: %v", err)
	}
	return cfg
}

func (c *Config) Reactions() ReactionsConfig {
	var cfg ReactionsConfig
	if err := c.k.Unmarshal("reactions", &cfg); err != nil {
		log.Fatalf("reactionsConfig unmarshal error: %v", err)
	}
	if len(cfg.Moods) == 0 {
		cfg.Moods = defaultReactionMoods()
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultReactionSystemPrompt()
	}
	return cfg
}

func (c *Config) Admin() AdminConfig {
	var cfg AdminConfig
	if err := c.k.Unmarshal("admin", &cfg); err != nil {
		log.Fatalf("adminConfig unmarshal error: %v", err)
	}
	return cfg
}

func (c *Config) Log() LoggingConfig {
	return LoggingConfig{
		LogLevel:    c.k.String(LOGGING_LEVEL),
		WriteInFile: c.k.Bool(LOGGING_WRITE_IN_FILE),
		FilePath:    c.k.String(LOGGING_FILE_PATH),
	}
}

func (c *Config) HTTP() HTTPConfig {
	var proxy string
	if proxyValue := c.k.Get(HTTP_PROXY); proxyValue != nil {
		proxy, _ = proxyValue.(string)
	}
	return HTTPConfig{proxy: &proxy}
}

func (c *Config) GetDatabaseDSN() string {
	dsn := c.k.String(DATABASE_DSN)
	parts := strings.Split(dsn, "?")
	path := parts[0]

	params := make(map[string]string)
	if len(parts) > 1 {
		for _, param := range strings.Split(parts[1], "&") {
			if kv := strings.Split(param, "="); len(kv) == 2 {
				params[kv[0]] = kv[1]
			}
		}
	}

	for k, v := range defaultSQLiteParams {
		if _, exists := params[k]; !exists {
			params[k] = v
		}
	}

	var queryParams []string
	for k, v := range params {
		queryParams = append(queryParams, k+"="+v)
	}
	sort.Strings(queryParams)

	if len(queryParams) > 0 {
		return path + "?" + strings.Join(queryParams, "&")
	}
	return path
}

func getConfigPaths() []string {
	if configPath != "" {
		return []string{configPath}
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, _ := os.UserHomeDir()
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		"telechat.yaml",
		"config.yaml",
		filepath.Join("config", "config.yaml"),
		filepath.Join(xdgConfig, "telechat", "config.yaml"),
		"/etc/telechat/config.yaml",
	}
}
