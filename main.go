package main

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"survbot/internal/bot"
	"survbot/internal/botconfig"
	"survbot/internal/common"
	"survbot/internal/store"
	"survbot/internal/survivio"
)

type config struct {
	DiscordToken string `env:"SURVBOT_DISCORD_TOKEN,required"`
	DBDriver     string `env:"SURVBOT_DB_DRIVER" envDefault:"sqlite"`
	DBDSN        string `env:"SURVBOT_DB_DSN" envDefault:"./data/servers.db"`
	ConfigPath   string `env:"SURVBOT_CONFIG_PATH" envDefault:"./data/config.json"`
	SurvivURL    string `env:"SURVBOT_SURVIV_URL" envDefault:"https://surviv.io"`
	Debug        bool   `env:"SURVBOT_DEBUG"`
}

func main() {

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal().Msgf("Could not parse environment: %s", err)
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Guild configuration store
	st, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal().Msgf("Could not open the guild config store: %s", err)
	}
	defer st.Close()

	// Process wide configuration
	guard, err := botconfig.Load(cfg.ConfigPath)
	if err != nil {
		log.Fatal().Msgf("Could not load the bot configuration: %s", err)
	}

	// Surviv API, with some burst protection on outbound requests
	restrictions := []common.Restriction{
		{Requests: 20, Duration: time.Minute},
	}
	survivapi := survivio.NewClient(cfg.SurvivURL, restrictions)

	// Create and run the bot
	b := bot.CreateBot(cfg.DiscordToken, st, guard, &survivapi, bot.DefaultUpdateInterval)
	log.Info().Msg("Starting")
	if err := b.Run(); err != nil {
		log.Fatal().Msgf("Bot stopped with an error: %s", err)
	}
}
