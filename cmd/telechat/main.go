package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/muratoffalex/telechat/internal/app"
)

var (
	version   string
	buildTime string
)

func main() {
	fmt.Printf("Starting telechat version: %s (built at: %s)\n", version, buildTime)
	application, err := app.New()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := application.Start(); err != nil && !errors.Is(err, context.Canceled) {
		application.Logger.WithError(err).Fatal("Application failed")
	}
}
