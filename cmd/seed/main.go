package main

import (
	"context"
	"fmt"
	"os"

	"teamportal/internal/app"
	"teamportal/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	var (
		rosterPath   string
		catalogPath  string
		forceCatalog bool
	)
	flags := pflag.NewFlagSet("seed", pflag.ExitOnError)
	flags.StringVar(&rosterPath, "roster", "", "YAML file with teams to create")
	flags.StringVar(&catalogPath, "catalog", "", "problem catalog YAML file (defaults to CATALOG_FILE)")
	flags.BoolVar(&forceCatalog, "force-catalog", false, "overwrite the stored problem catalog and clear all selections")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if catalogPath != "" {
		cfg.CatalogFile = catalogPath
	}
	app.SetupLogging(cfg.LogLevel, "console")

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close(ctx)

	if forceCatalog {
		if err := a.ReplaceCatalog(ctx, a.Catalog.Problems); err != nil {
			log.Fatal().Err(err).Msg("failed to replace catalog")
		}
		fmt.Printf("Replaced catalog with %d problems from %s\n", len(a.Catalog.Problems), cfg.CatalogFile)
	}

	if rosterPath != "" {
		roster, err := config.LoadRoster(rosterPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load roster")
		}
		created, skipped, err := a.SeedTeams(ctx, roster)
		if err != nil {
			log.Fatal().Err(err).Int("created", created).Msg("failed to seed teams")
		}
		fmt.Printf("Created %d teams, skipped %d existing\n", created, skipped)
	}
}
