package di

import (
	"net/http"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"github.com/muratoffalex/telechat/internal/access"
	"github.com/muratoffalex/telechat/internal/ai"
	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/database"
	"github.com/muratoffalex/telechat/internal/history"
	"github.com/muratoffalex/telechat/internal/logger"
	"github.com/muratoffalex/telechat/internal/network"
	"github.com/muratoffalex/telechat/internal/reactions"
	"github.com/muratoffalex/telechat/internal/search"
	"github.com/muratoffalex/telechat/internal/service"
	"github.com/muratoffalex/telechat/internal/telegram"
)

type Container struct {
	BotClient  telegram.Client
	Sender     *telegram.Sender
	Logger     logger.Logger
	DB         database.Database
	Cfg        *config.Config
	Localizer  *service.Localizer
	History    *history.Store
	Search     *search.Client
	Access     *access.Filter
	AI         ai.Provider
	Reactions  *reactions.Analyzer
	HttpClient *http.Client
}

func NewContainer(cfg *config.Config) (*Container, error) {
	l := logger.NewLogrusLogger(cfg.Log())

	db, err := database.NewSQLiteDB(cfg.GetDatabaseDSN(), l)
	if err != nil {
		return nil, err
	}

	localizer, err := service.NewLocalizer(cfg.Bot().Language)
	if err != nil {
		l.WithError(err).Fatal("Error create localizer")
	}

	container := &Container{
		Logger:    l,
		DB:        db,
		Cfg:       cfg,
		Localizer: localizer,
	}

	proxyURL := cfg.HTTP().GetProxy()
	noProxy := cfg.HTTP().GetNoProxy()
	container.HttpClient = network.SetupHTTPClient(network.NewDefaultHTTPClientConfig(proxyURL, noProxy), l)
	streamClient := network.SetupHTTPClient(network.NewStreamingHTTPClientConfig(proxyURL, noProxy), l)
	searchClient := network.SetupHTTPClient(network.NewSearchHTTPClientConfig(proxyURL, noProxy), l)

	container.History = history.NewStore(db, cfg.Mistral().HistorySize, l)
	container.Search = search.NewClient(cfg.Search(), searchClient, l)

	selector := ai.NewModelSelector(cfg.Mistral().Model, l)
	providers := []ai.Provider{
		ai.NewMistralClient(cfg.Mistral(), selector, l, container.HttpClient, streamClient),
	}
	if groqCfg := cfg.Groq(); groqCfg.IsActive() {
		providers = append(providers, ai.NewGroqClient(groqCfg, selector, l, container.HttpClient, streamClient))
	}
	if gemmaCfg := cfg.Gemma(); gemmaCfg.IsActive() {
		providers = append(providers, ai.NewGemmaClient(gemmaCfg, l, container.HttpClient, streamClient))
	}
	container.AI = ai.NewProviderRouter(l, providers...)

	accessList, err := access.LoadList(cfg.AccessFilePath())
	if err != nil {
		return nil, err
	}

	if cfg.Bot().CLIMode {
		// CLI mode has no Telegram surface, everything above is enough.
		container.Access = access.NewFilter(accessList, cfg.Admin(), cfg.Telegram().BotUsername, l)
		return container, nil
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram().Token)
	if err != nil {
		l.WithError(err).Fatal("Bot API client initialization error")
	}
	api.Client = container.HttpClient
	l.Info("Bot API initialized")

	botClient := telegram.NewBotClient(api, l)
	container.BotClient = botClient
	container.Sender = telegram.NewSender(botClient, l)

	botUsername := cfg.Telegram().BotUsername
	if botUsername == "" {
		botUsername = botClient.Self().UserName
	}
	container.Access = access.NewFilter(accessList, cfg.Admin(), botUsername, l)

	container.Reactions = reactions.NewAnalyzer(
		cfg.Reactions(), accessList, container.AI, botClient, l,
	)

	return container, nil
}
