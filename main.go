// Package main provides the entry point for the Knocker Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"github.com/knockerbot/knocker/internal/ai"
	"github.com/knockerbot/knocker/internal/app"
	"github.com/knockerbot/knocker/internal/bot"
	"github.com/knockerbot/knocker/internal/commands"
	"github.com/knockerbot/knocker/internal/config"
	"github.com/knockerbot/knocker/internal/discord"
	"github.com/knockerbot/knocker/internal/infrastructure"
	"github.com/knockerbot/knocker/internal/openai"
	"github.com/knockerbot/knocker/internal/voice"
	pkginfra "github.com/knockerbot/knocker/pkg/infrastructure"
)

func main() {
	// Default config path; DISCORD_TOKEN and OPENAI_API_KEY may come from the
	// environment instead.
	configPath := "config.yaml"

	application := app.New(
		// Core modules
		config.Module,
		infrastructure.LoggerModule,

		// External service modules
		discord.Module,
		openai.Module,

		// Application modules
		ai.Module,
		voice.Module,
		commands.Module,
		bot.Module,

		// Supply the config path
		fx.Supply(configPath),

		// Configure Fx to use our Zap logger for its own internal logging
		fx.WithLogger(pkginfra.NewFxLoggerAdapter),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go application.Run()

	sig := <-sigCh
	fmt.Printf("Received signal: %s, initiating shutdown.\n", sig)

	// Give the application 30 seconds to shut down gracefully.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := application.Stop(shutdownCtx)
	cancel()

	if err != nil {
		fmt.Printf("Error during shutdown: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Application has shut down gracefully.")
}
