package main

import (
	"github.com/rs/zerolog/log"

	"github.com/leagueforge/leago/config"
	_ "github.com/leagueforge/leago/docs"
	"github.com/leagueforge/leago/internal/player"
	"github.com/leagueforge/leago/internal/season"
	"github.com/leagueforge/leago/internal/team"
	"github.com/leagueforge/leago/routes"
)

// @title Leago League API
// @version 1.0
// @description League management server: seasons, teams, rosters and offers.
// @host localhost:8088
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	if err := config.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	cfg := config.GetConfig()

	err := config.DB.AutoMigrate(
		&player.Player{}, &player.SeasonMembership{},
		&season.Season{},
		&team.Team{}, &team.RosterEntry{}, &team.Offer{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("AutoMigrate failed")
	}
	log.Info().Msg("AutoMigrate successful")

	r := routes.SetupRoutes(cfg)

	log.Info().Str("port", cfg.App.Port).Str("env", cfg.App.Env).Msg("Starting server")
	if err := r.Run(":" + cfg.App.Port); err != nil {
		log.Fatal().Err(err).Msg("Failed to run server")
	}
}
