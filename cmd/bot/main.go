package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/trovebot/trove/bot"
	"github.com/trovebot/trove/config"
)

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		panic(err)
	}
	log.Info().Msgf("Loaded config: %v, exPath: %v", cfg.AllSettings(), exPath)
	cfg.AdjustRelativePaths(exPath)

	if cfg.Debug() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	b := bot.NewBot(cfg)
	if err := bot.Main(bot.DefaultChannel, b); err != nil {
		log.Fatal().AnErr("err", err).Msg("bot exited")
	}
	log.Info().Msg("server gracefully shutting down")
}
