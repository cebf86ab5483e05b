package app

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/muratoffalex/telechat/internal/app/di"
	"github.com/muratoffalex/telechat/internal/cli"
	"github.com/muratoffalex/telechat/internal/commands/admin"
	"github.com/muratoffalex/telechat/internal/commands/chat"
	"github.com/muratoffalex/telechat/internal/commands/start"
	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/core"
	"github.com/muratoffalex/telechat/internal/logger"
)

type Application struct {
	Logger logger.Logger
	cfg    *config.Config
	di     *di.Container
	bot    *core.Bot
	ctx    context.Context
	cancel context.CancelFunc
}

func New() (*Application, error) {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		return nil, err
	}
	container.Logger.Info("DI container created")

	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		Logger: container.Logger,
		cfg:    cfg,
		di:     container,
		ctx:    ctx,
		cancel: cancel,
	}

	if !cfg.Bot().CLIMode {
		app.bot = core.NewBot(
			container.BotClient,
			container.Access,
			container.Reactions,
			container.Localizer,
			container.Logger,
		)
		app.registerCommands()
	}

	app.handleSignals()
	return app, nil
}

func (a *Application) Start() error {
	defer a.di.DB.Close()

	if a.cfg.Bot().CLIMode {
		a.Logger.Info("Starting in CLI mode")
		chatCLI := cli.NewChat(a.di.AI, a.di.History, a.cfg, a.Logger)
		return chatCLI.Run(a.ctx)
	}

	a.Logger.Info("Starting application")
	return a.bot.Start(a.ctx)
}

func (a *Application) registerCommands() {
	a.bot.RegisterCommand(start.New(a.di))
	a.bot.RegisterCommand(admin.New(a.di))
	a.bot.RegisterChatCommand(chat.New(a.di))
}

func (a *Application) handleSignals() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		a.Logger.Info("Shutdown signal received")
		a.cancel()
	}()
}
