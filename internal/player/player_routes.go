package player

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/leagueforge/leago/config"
	mw "github.com/leagueforge/leago/internal/middleware"
	"github.com/leagueforge/leago/internal/rules"
)

func RegisterPlayerRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config, jwtSecret string) {

	playerRepo := NewPlayerRepository(db)
	playerController := NewPlayerController(playerRepo, rules.Default())

	publicPlayers := router.Group("/players")
	{
		publicPlayers.GET("/:player_id", playerController.GetPlayerByID)
	}

	// Provisioning runs on token claims alone; the player row does not exist yet.
	provisioning := router.Group("/players")
	provisioning.Use(mw.AuthMiddleware(jwtSecret))
	{
		provisioning.POST("", playerController.SelfProvision)
	}

	authenticated := router.Group("/players")
	authenticated.Use(mw.AuthMiddleware(jwtSecret), ResolveMiddleware(db))
	{
		authenticated.GET("/me", playerController.GetMe)
		authenticated.PATCH("/:player_id", playerController.UpdatePlayer)
	}

	adminPlayers := router.Group("/admin/players")
	adminPlayers.Use(mw.AuthMiddleware(jwtSecret), ResolveMiddleware(db), AdminMiddleware())
	{
		adminPlayers.GET("", playerController.AdminGetAllPlayers)
	}
}
