package player

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/leagueforge/leago/internal/middleware"
	"github.com/leagueforge/leago/internal/rules"
	"github.com/leagueforge/leago/pkg/apperr"
	"github.com/leagueforge/leago/pkg/responses"
	"github.com/leagueforge/leago/pkg/validator"
)

// PlayerController handles player profile HTTP requests. Direct writes to
// player documents go through the access guard ruleset; everything that
// touches rosters, captaincy or offers is out of reach here and owned by the
// team operations.
type PlayerController struct {
	repo    PlayerRepository
	ruleset rules.Ruleset
}

// NewPlayerController creates a new player controller
func NewPlayerController(repo PlayerRepository, ruleset rules.Ruleset) *PlayerController {
	return &PlayerController{
		repo:    repo,
		ruleset: ruleset,
	}
}

type SelfProvisionRequest struct {
	FirstName string `json:"first_name" binding:"required,min=1,max=50"`
	LastName  string `json:"last_name" binding:"required,min=1,max=50"`
}

type UpdatePlayerRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=50"`
	LastName  *string `json:"last_name" binding:"omitempty,min=1,max=50"`
}

func (req *UpdatePlayerRequest) fields() []string {
	var fields []string
	if req.FirstName != nil {
		fields = append(fields, "first_name")
	}
	if req.LastName != nil {
		fields = append(fields, "last_name")
	}
	return fields
}

// SelfProvision godoc
// @Summary Create the authenticated player's own profile
// @Description Creates the player document for the caller's identity. Identity and email come from the
// @Description verified token, never from the request body; the body only supplies the name.
// @Tags Players
// @Accept json
// @Produce json
// @Param player body SelfProvisionRequest true "Player Name"
// @Success 201 {object} responses.SuccessResponse{data=Player} "Player created"
// @Failure 400 {object} responses.ErrorResponse "Invalid input"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 409 {object} responses.ErrorResponse "Profile already exists"
// @Security ApiKeyAuth
// @Router /players [post]
func (pc *PlayerController) SelfProvision(c *gin.Context) {
	subject := middleware.Subject(c)
	if subject == "" {
		responses.Unauthorized(c, "User not authenticated")
		return
	}

	if err := pc.ruleset.Allow(rules.Request{
		Collection:   rules.CollectionPlayers,
		Operation:    rules.OpCreate,
		AuthSubject:  subject,
		OwnerSubject: subject,
	}); err != nil {
		responses.SendAppError(c, err)
		return
	}

	var req SelfProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+validator.BindingMessage(err))
		return
	}

	existing, err := pc.repo.GetPlayerByExternalID(subject)
	if err != nil {
		responses.InternalServerError(c, "Failed to check existing profile: "+err.Error())
		return
	}
	if existing != nil {
		responses.SendError(c, apperr.KindAlreadyExists, "Player profile already exists")
		return
	}

	p := Player{
		ExternalID: subject,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      middleware.Email(c),
	}
	if err := pc.repo.CreatePlayer(&p); err != nil {
		responses.InternalServerError(c, "Failed to create player: "+err.Error())
		return
	}

	log.Info().Uint("player_id", p.ID).Str("subject", subject).Msg("Player profile created")
	responses.SendSuccess(c, http.StatusCreated, "Player profile created", p)
}

// GetMe godoc
// @Summary Get the authenticated player's profile
// @Description Retrieves the caller's player profile including season memberships.
// @Tags Players
// @Produce json
// @Success 200 {object} responses.SuccessResponse{data=Player} "Player profile"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 404 {object} responses.ErrorResponse "Player not found"
// @Security ApiKeyAuth
// @Router /players/me [get]
func (pc *PlayerController) GetMe(c *gin.Context) {
	requester, err := FromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}

	p, err := pc.repo.GetPlayerWithMemberships(requester.ID)
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve player: "+err.Error())
		return
	}
	if p == nil {
		responses.NotFound(c, "Player")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Player retrieved successfully", p)
}

// GetPlayerByID godoc
// @Summary Get a player by ID
// @Description Retrieves a player's public profile.
// @Tags Players
// @Produce json
// @Param player_id path uint true "Player ID"
// @Success 200 {object} responses.SuccessResponse{data=Player} "Player profile"
// @Failure 404 {object} responses.ErrorResponse "Player not found"
// @Router /players/{player_id} [get]
func (pc *PlayerController) GetPlayerByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("player_id"), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid player_id")
		return
	}

	if err := pc.ruleset.Allow(rules.Request{
		Collection: rules.CollectionPlayers,
		Operation:  rules.OpRead,
	}); err != nil {
		responses.SendAppError(c, err)
		return
	}

	p, err := pc.repo.GetPlayerByID(uint(id))
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve player: "+err.Error())
		return
	}
	if p == nil {
		responses.NotFound(c, "Player")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Player retrieved successfully", p)
}

// UpdatePlayer godoc
// @Summary Update a player profile
// @Description Patches a player document directly. The access guard only lets the owning player
// @Description touch their own name fields; anything structural is rejected.
// @Tags Players
// @Accept json
// @Produce json
// @Param player_id path uint true "Player ID"
// @Param player body UpdatePlayerRequest true "Fields to patch"
// @Success 200 {object} responses.SuccessResponse{data=Player} "Player updated"
// @Failure 400 {object} responses.ErrorResponse "Invalid input"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 403 {object} responses.ErrorResponse "Not the owner or field not writable"
// @Failure 404 {object} responses.ErrorResponse "Player not found"
// @Security ApiKeyAuth
// @Router /players/{player_id} [patch]
func (pc *PlayerController) UpdatePlayer(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("player_id"), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid player_id")
		return
	}

	var req UpdatePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+validator.BindingMessage(err))
		return
	}

	target, err := pc.repo.GetPlayerByID(uint(id))
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve player: "+err.Error())
		return
	}
	if target == nil {
		responses.NotFound(c, "Player")
		return
	}

	if err := pc.ruleset.Allow(rules.Request{
		Collection:   rules.CollectionPlayers,
		Operation:    rules.OpUpdate,
		AuthSubject:  middleware.Subject(c),
		OwnerSubject: target.ExternalID,
		Fields:       req.fields(),
	}); err != nil {
		responses.SendAppError(c, err)
		return
	}

	if req.FirstName != nil {
		target.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		target.LastName = *req.LastName
	}
	if err := pc.repo.UpdatePlayer(target); err != nil {
		responses.InternalServerError(c, "Failed to update player: "+err.Error())
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Player updated successfully", target)
}

// AdminGetAllPlayers godoc
// @Summary (Admin) Get all players
// @Description (Admin) Retrieves all player profiles with pagination.
// @Tags Admin-Players
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} responses.PaginatedResponse{data=[]Player} "List of players"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 403 {object} responses.ErrorResponse "Forbidden - Admin access required"
// @Security ApiKeyAuth
// @Router /admin/players [get]
func (pc *PlayerController) AdminGetAllPlayers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	players, total, err := pc.repo.GetAllPlayers(page, limit)
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve players: "+err.Error())
		return
	}
	responses.SendPaginated(c, http.StatusOK, "Players retrieved successfully", players, total, page, limit)
}
