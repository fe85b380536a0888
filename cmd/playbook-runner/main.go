package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	logger := log.With().Str("component", "main").Logger()

	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("No .env file loaded")
	}

	cmd := newRootCmd(newAppContext())
	os.Exit(exitCode(cmd, cmd.Execute()))
}
