package season

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/leagueforge/leago/config"
	mw "github.com/leagueforge/leago/internal/middleware"
	"github.com/leagueforge/leago/internal/player"
)

func RegisterSeasonRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config, jwtSecret string) {

	seasonRepo := NewSeasonRepository(db)
	seasonController := NewSeasonController(seasonRepo)

	publicSeasons := router.Group("/seasons")
	{
		publicSeasons.GET("", seasonController.GetAllSeasons)
		publicSeasons.GET("/:season_id", seasonController.GetSeasonByID)
	}

	adminSeasons := router.Group("/admin/seasons")
	adminSeasons.Use(mw.AuthMiddleware(jwtSecret), player.ResolveMiddleware(db), player.AdminMiddleware())
	{
		adminSeasons.POST("", seasonController.CreateSeason)
		adminSeasons.PATCH("/:season_id", seasonController.UpdateSeason)
	}
}
