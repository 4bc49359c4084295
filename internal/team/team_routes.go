package team

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/leagueforge/leago/config"
	mw "github.com/leagueforge/leago/internal/middleware"
	"github.com/leagueforge/leago/internal/player"
	"github.com/leagueforge/leago/internal/storage"
)

func RegisterTeamRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config, jwtSecret string, blobs storage.BlobStore) {

	teamRepo := NewTeamRepository(db)
	teamController := NewTeamController(teamRepo, blobs, appConfig)

	publicTeams := router.Group("/teams")
	{
		publicTeams.GET("", teamController.GetTeams)                       // Teams in a season
		publicTeams.GET("/:team_id", teamController.GetTeamByID)           // One team with roster
		publicTeams.GET("/:team_id/roster", teamController.GetTeamRoster)  // Roster only
	}

	authenticated := router.Group("/")
	authenticated.Use(mw.AuthMiddleware(jwtSecret), player.ResolveMiddleware(db))
	{
		teams := authenticated.Group("/teams")
		{
			teams.POST("", teamController.CreateTeam)
			teams.PATCH("/:team_id", teamController.UpdateTeam)
			teams.DELETE("/:team_id", teamController.DeleteTeam)
			teams.PUT("/:team_id/players/:player_id/:action", teamController.ManageTeamPlayer)

			teams.POST("/:team_id/offers", teamController.CreateOffer)
			teams.GET("/:team_id/offers", teamController.GetTeamOffers) // Captain only, enforced in handler
		}

		offers := authenticated.Group("/offers")
		{
			offers.PUT("/:offer_id/:response", teamController.RespondToOffer)
		}

		authenticated.GET("/players/me/offers", teamController.GetMyOffers)

		adminTeams := authenticated.Group("/admin/teams")
		adminTeams.Use(player.AdminMiddleware())
		{
			adminTeams.GET("", teamController.AdminGetAllTeams)
		}
	}
}
