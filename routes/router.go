package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/leagueforge/leago/config"
	"github.com/leagueforge/leago/internal/player"
	"github.com/leagueforge/leago/internal/season"
	"github.com/leagueforge/leago/internal/storage"
	"github.com/leagueforge/leago/internal/team"
)

func SetupRoutes(cfg *config.Config) *gin.Engine {
	if cfg.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	if cfg.App.FrontendURL != "" {
		corsConfig.AllowOrigins = []string{cfg.App.FrontendURL}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsConfig))

	// Team logos and other stored blobs
	r.Static("/public", cfg.App.UploadDir)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":   "leago",
			"status": "ok",
		})
	})

	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	blobs := storage.NewDiskStore(cfg.App.UploadDir, "/public")

	api := r.Group("/api")
	player.RegisterPlayerRoutes(api, config.DB, cfg, cfg.JWT.Secret)
	season.RegisterSeasonRoutes(api, config.DB, cfg, cfg.JWT.Secret)
	team.RegisterTeamRoutes(api, config.DB, cfg, cfg.JWT.Secret, blobs)

	return r
}
