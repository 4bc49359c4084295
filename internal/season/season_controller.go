package season

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/leagueforge/leago/pkg/responses"
	"github.com/leagueforge/leago/pkg/validator"
)

// SeasonController handles season HTTP requests
type SeasonController struct {
	repo SeasonRepository
}

// NewSeasonController creates a new season controller
func NewSeasonController(repo SeasonRepository) *SeasonController {
	return &SeasonController{repo: repo}
}

type CreateSeasonRequest struct {
	Name                 string    `json:"name" binding:"required,min=3,max=100"`
	RegistrationOpensAt  time.Time `json:"registration_opens_at" binding:"required"`
	RegistrationClosesAt time.Time `json:"registration_closes_at" binding:"required"`
}

type UpdateSeasonRequest struct {
	Name                 *string    `json:"name" binding:"omitempty,min=3,max=100"`
	RegistrationOpensAt  *time.Time `json:"registration_opens_at"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at"`
}

// GetAllSeasons godoc
// @Summary Get all seasons
// @Description Retrieves all seasons with pagination.
// @Tags Seasons
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} responses.PaginatedResponse{data=[]Season} "List of seasons"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /seasons [get]
func (sc *SeasonController) GetAllSeasons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	seasons, total, err := sc.repo.GetAllSeasons(page, limit)
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve seasons: "+err.Error())
		return
	}
	responses.SendPaginated(c, http.StatusOK, "Seasons retrieved successfully", seasons, total, page, limit)
}

// GetSeasonByID godoc
// @Summary Get a season by ID
// @Description Retrieves a season including its registration window.
// @Tags Seasons
// @Produce json
// @Param season_id path uint true "Season ID"
// @Success 200 {object} responses.SuccessResponse{data=Season} "Season details"
// @Failure 404 {object} responses.ErrorResponse "Season not found"
// @Router /seasons/{season_id} [get]
func (sc *SeasonController) GetSeasonByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("season_id"), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid season_id")
		return
	}

	s, err := sc.repo.GetSeasonByID(uint(id))
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve season: "+err.Error())
		return
	}
	if s == nil {
		responses.NotFound(c, "Season")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Season retrieved successfully", s)
}

// CreateSeason godoc
// @Summary (Admin) Create a season
// @Description (Admin) Creates a season with a registration window.
// @Tags Admin-Seasons
// @Accept json
// @Produce json
// @Param season body CreateSeasonRequest true "Season Data"
// @Success 201 {object} responses.SuccessResponse{data=Season} "Season created"
// @Failure 400 {object} responses.ErrorResponse "Invalid input"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 403 {object} responses.ErrorResponse "Forbidden - Admin access required"
// @Security ApiKeyAuth
// @Router /admin/seasons [post]
func (sc *SeasonController) CreateSeason(c *gin.Context) {
	var req CreateSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+validator.BindingMessage(err))
		return
	}
	if !req.RegistrationClosesAt.After(req.RegistrationOpensAt) {
		responses.BadRequest(c, "registration_closes_at must be after registration_opens_at")
		return
	}

	s := Season{
		Name:                 req.Name,
		RegistrationOpensAt:  req.RegistrationOpensAt,
		RegistrationClosesAt: req.RegistrationClosesAt,
	}
	if err := sc.repo.CreateSeason(&s); err != nil {
		responses.InternalServerError(c, "Failed to create season: "+err.Error())
		return
	}

	log.Info().Uint("season_id", s.ID).Str("name", s.Name).Msg("Season created")
	responses.SendSuccess(c, http.StatusCreated, "Season created successfully", s)
}

// UpdateSeason godoc
// @Summary (Admin) Update a season
// @Description (Admin) Patches a season's name or registration window.
// @Tags Admin-Seasons
// @Accept json
// @Produce json
// @Param season_id path uint true "Season ID"
// @Param season body UpdateSeasonRequest true "Fields to patch"
// @Success 200 {object} responses.SuccessResponse{data=Season} "Season updated"
// @Failure 400 {object} responses.ErrorResponse "Invalid input"
// @Failure 404 {object} responses.ErrorResponse "Season not found"
// @Security ApiKeyAuth
// @Router /admin/seasons/{season_id} [patch]
func (sc *SeasonController) UpdateSeason(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("season_id"), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid season_id")
		return
	}

	var req UpdateSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+validator.BindingMessage(err))
		return
	}

	s, err := sc.repo.GetSeasonByID(uint(id))
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve season: "+err.Error())
		return
	}
	if s == nil {
		responses.NotFound(c, "Season")
		return
	}

	if req.Name != nil {
		s.Name = *req.Name
	}
	if req.RegistrationOpensAt != nil {
		s.RegistrationOpensAt = *req.RegistrationOpensAt
	}
	if req.RegistrationClosesAt != nil {
		s.RegistrationClosesAt = *req.RegistrationClosesAt
	}
	if !s.RegistrationClosesAt.After(s.RegistrationOpensAt) {
		responses.BadRequest(c, "registration_closes_at must be after registration_opens_at")
		return
	}

	if err := sc.repo.UpdateSeason(s); err != nil {
		responses.InternalServerError(c, "Failed to update season: "+err.Error())
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Season updated successfully", s)
}
