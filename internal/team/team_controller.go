package team

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/leagueforge/leago/config"
	"github.com/leagueforge/leago/internal/middleware"
	"github.com/leagueforge/leago/internal/player"
	"github.com/leagueforge/leago/internal/storage"
	"github.com/leagueforge/leago/pkg/apperr"
	"github.com/leagueforge/leago/pkg/responses"
	"github.com/leagueforge/leago/pkg/validator"
)

// TeamController handles team, roster and offer HTTP requests. Every
// mutating handler validates against fresh reads inside a single
// transaction, so no failure ever leaves a partial write behind.
type TeamController struct {
	repo      TeamRepository
	blobs     storage.BlobStore
	appConfig *config.Config
}

// NewTeamController creates a new team controller
func NewTeamController(repo TeamRepository, blobs storage.BlobStore, appConfig *config.Config) *TeamController {
	return &TeamController{
		repo:      repo,
		blobs:     blobs,
		appConfig: appConfig,
	}
}

// --- DTOs for requests ---

type CreateTeamRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=100"`
	SeasonID uint   `json:"season_id" binding:"required"`
	Logo     string `json:"logo"`                                                 // base64-encoded image bytes, optional
	LogoExt  string `json:"logo_ext" binding:"omitempty,oneof=png jpg jpeg webp"` // defaults to png
}

type UpdateTeamRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=3,max=100"`
	Logo        *string `json:"logo"`
	StoragePath *string `json:"storage_path"`
}

// --- Helpers ---

func requireVerifiedPlayer(c *gin.Context) (*player.Player, bool) {
	p, err := player.FromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return nil, false
	}
	if !middleware.EmailVerified(c) {
		responses.Forbidden(c, "Please verify your email address first")
		return nil, false
	}
	return p, true
}

// isCaptain reports whether the player currently holds a captain roster
// entry on the team, from a fresh read on the given repository (pass the
// transactional repository to get in-transaction freshness).
func isCaptain(repo TeamRepository, teamID, playerID uint) (bool, error) {
	entry, err := repo.GetRosterEntry(teamID, playerID)
	if err != nil {
		return false, err
	}
	return entry != nil && entry.IsCaptain, nil
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// --- Team Handlers ---

// CreateTeam godoc
// @Summary Create a new team
// @Description Creates a new team for a season with the authenticated player as its sole captain.
// @Description Non-admin callers must be inside the season's registration window and not already on a team this season.
// @Tags Teams
// @Accept json
// @Produce json
// @Param team body CreateTeamRequest true "Team Creation Data"
// @Success 201 {object} responses.SuccessResponse{data=Team} "Team created successfully"
// @Failure 400 {object} responses.ErrorResponse "Invalid input"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 404 {object} responses.ErrorResponse "Season not found"
// @Failure 409 {object} responses.ErrorResponse "Already on a team this season"
// @Failure 412 {object} responses.ErrorResponse "Registration window closed"
// @Security ApiKeyAuth
// @Router /teams [post]
func (tc *TeamController) CreateTeam(c *gin.Context) {
	requester, ok := requireVerifiedPlayer(c)
	if !ok {
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+validator.BindingMessage(err))
		return
	}

	// Registration completes operationally (payment is outside the core), so
	// a new team starts unregistered.
	team := Team{
		TeamKey:  uuid.NewString(),
		Name:     req.Name,
		SeasonID: req.SeasonID,
	}

	// The logo lives in the blob store, out-of-band of the transaction. A
	// storage failure degrades gracefully: the team is still created, just
	// without a logo.
	if req.Logo != "" {
		if data, err := base64.StdEncoding.DecodeString(req.Logo); err != nil {
			responses.BadRequest(c, "Invalid logo encoding: "+err.Error())
			return
		} else {
			ext := req.LogoExt
			if ext == "" {
				ext = "png"
			}
			url, storagePath, err := tc.blobs.Save("teams/"+team.TeamKey+"."+ext, data)
			if err != nil {
				log.Warn().Err(err).Str("team_key", team.TeamKey).Msg("Logo upload failed, creating team without logo")
			} else {
				team.Logo = url
				team.StoragePath = storagePath
			}
		}
	}

	now := time.Now()
	err := tc.repo.WithTransaction(func(repo TeamRepository) error {
		s, err := repo.GetSeasonByID(req.SeasonID)
		if err != nil {
			return apperr.Internal("failed to load season", err)
		}
		if s == nil {
			return apperr.New(apperr.KindNotFound, "season not found")
		}
		if !requester.IsAdmin && !s.RegistrationOpen(now) {
			return apperr.Newf(apperr.KindFailedPrecondition,
				"registration window closed (open %s)", s.WindowString())
		}

		p, err := repo.GetPlayerByID(requester.ID)
		if err != nil {
			return apperr.Internal("failed to load player", err)
		}
		if p == nil {
			return apperr.New(apperr.KindNotFound, "player profile not found")
		}

		membership, err := repo.GetMembership(requester.ID, req.SeasonID)
		if err != nil {
			return apperr.Internal("failed to load season membership", err)
		}
		if membership.OnTeam() {
			return apperr.New(apperr.KindAlreadyExists, "already on a team this season")
		}

		if err := repo.CreateTeam(&team); err != nil {
			return apperr.Internal("failed to create team", err)
		}
		if err := repo.AddRosterEntry(&RosterEntry{
			TeamID:    team.ID,
			PlayerID:  requester.ID,
			IsCaptain: true,
		}); err != nil {
			return apperr.Internal("failed to add creator to roster", err)
		}

		if membership == nil {
			membership = &player.SeasonMembership{
				PlayerID: requester.ID,
				SeasonID: req.SeasonID,
			}
		}
		membership.TeamID = &team.ID
		membership.IsCaptain = true
		if err := repo.SaveMembership(membership); err != nil {
			return apperr.Internal("failed to save season membership", err)
		}
		return nil
	})

	if err != nil {
		// Clean up the orphaned logo blob if the transaction never committed.
		if team.StoragePath != "" {
			if derr := tc.blobs.Delete(team.StoragePath); derr != nil {
				log.Warn().Err(derr).Str("path", team.StoragePath).Msg("Failed to remove orphaned logo")
			}
		}
		responses.SendAppError(c, err)
		return
	}

	log.Info().Uint("team_id", team.ID).Str("team_key", team.TeamKey).
		Uint("season_id", team.SeasonID).Uint("captain_id", requester.ID).
		Msg("Team created")
	responses.SendSuccess(c, http.StatusCreated, "Team created successfully", team)
}

// GetTeamByID godoc
// @Summary Get a team by its ID
// @Description Retrieves details of a specific team, including its roster.
// @Tags Teams
// @Produce json
// @Param team_id path uint true "Team ID"
// @Success 200 {object} responses.SuccessResponse{data=Team} "Team details"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /teams/{team_id} [get]
func (tc *TeamController) GetTeamByID(c *gin.Context) {
	teamID, ok := parseIDParam(c, "team_id")
	if !ok {
		return
	}

	team, err := tc.repo.GetTeamByID(teamID)
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve team: "+err.Error())
		return
	}
	if team == nil {
		responses.NotFound(c, "Team")
		return
	}
	roster, err := tc.repo.GetRoster(teamID)
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve roster: "+err.Error())
		return
	}
	team.Roster = roster
	responses.SendSuccess(c, http.StatusOK, "Team retrieved successfully", team)
}

// GetTeams godoc
// @Summary Get teams for a season
// @Description Retrieves teams registered for a season, with pagination.
// @Tags Teams
// @Produce json
// @Param season_id query uint true "Season ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} responses.PaginatedResponse{data=[]Team} "List of teams"
// @Failure 400 {object} responses.ErrorResponse "Missing season_id"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /teams [get]
func (tc *TeamController) GetTeams(c *gin.Context) {
	seasonID, err := strconv.ParseUint(c.Query("season_id"), 10, 32)
	if err != nil {
		responses.BadRequest(c, "season_id query parameter is required")
		return
	}
	page, limit := parsePagination(c)

	teams, total, err := tc.repo.GetTeamsBySeason(uint(seasonID), page, limit)
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve teams: "+err.Error())
		return
	}
	responses.SendPaginated(c, http.StatusOK, "Teams retrieved successfully", teams, total, page, limit)
}

// GetTeamRoster godoc
// @Summary Get a team's roster
// @Description Retrieves the roster entries of a team.
// @Tags Teams
// @Produce json
// @Param team_id path uint true "Team ID"
// @Success 200 {object} responses.SuccessResponse{data=[]RosterEntry} "Roster"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Router /teams/{team_id}/roster [get]
func (tc *TeamController) GetTeamRoster(c *gin.Context) {
	teamID, ok := parseIDParam(c, "team_id")
	if !ok {
		return
	}
	team, err := tc.repo.GetTeamByID(teamID)
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve team: "+err.Error())
		return
	}
	if team == nil {
		responses.NotFound(c, "Team")
		return
	}
	roster, err := tc.repo.GetRoster(teamID)
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve roster: "+err.Error())
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Roster retrieved successfully", roster)
}

// UpdateTeam godoc
// @Summary Update a team
// @Description Patches a team's simple fields (name, logo, storage path). Captain only. No roster or offer side effects.
// @Tags Teams
// @Accept json
// @Produce json
// @Param team_id path uint true "Team ID"
// @Param team body UpdateTeamRequest true "Team Update Data"
// @Success 200 {object} responses.SuccessResponse{data=Team} "Team updated successfully"
// @Failure 400 {object} responses.ErrorResponse "Invalid input or team ID"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 403 {object} responses.ErrorResponse "Forbidden - Not a captain"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Security ApiKeyAuth
// @Router /teams/{team_id} [patch]
func (tc *TeamController) UpdateTeam(c *gin.Context) {
	requester, ok := requireVerifiedPlayer(c)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "team_id")
	if !ok {
		return
	}

	var req UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+validator.BindingMessage(err))
		return
	}

	var updated *Team
	err := tc.repo.WithTransaction(func(repo TeamRepository) error {
		team, err := repo.GetTeamByID(teamID)
		if err != nil {
			return apperr.Internal("failed to load team", err)
		}
		if team == nil {
			return apperr.New(apperr.KindNotFound, "team not found")
		}

		captain, err := isCaptain(repo, teamID, requester.ID)
		if err != nil {
			return apperr.Internal("failed to check captaincy", err)
		}
		if !captain {
			return apperr.New(apperr.KindPermissionDenied, "only captains can update the team")
		}

		if req.Name != nil {
			team.Name = *req.Name
		}
		if req.Logo != nil {
			team.Logo = *req.Logo
		}
		if req.StoragePath != nil {
			team.StoragePath = *req.StoragePath
		}

		if err := repo.UpdateTeam(team); err != nil {
			return apperr.Internal("failed to update team", err)
		}
		updated = team
		return nil
	})

	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team updated successfully", updated)
}

// DeleteTeam godoc
// @Summary Delete a team
// @Description Deletes a team. Captain only. In one transaction every rostered player's season membership
// @Description is detached, every offer referencing the team is removed, and the team itself is deleted.
// @Tags Teams
// @Produce json
// @Param team_id path uint true "Team ID"
// @Success 200 {object} responses.SuccessResponse "Team deleted successfully"
// @Failure 400 {object} responses.ErrorResponse "Invalid team ID"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 403 {object} responses.ErrorResponse "Forbidden - Not a captain"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Security ApiKeyAuth
// @Router /teams/{team_id} [delete]
func (tc *TeamController) DeleteTeam(c *gin.Context) {
	requester, ok := requireVerifiedPlayer(c)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "team_id")
	if !ok {
		return
	}

	var deletedName string
	var rosterSize int
	err := tc.repo.WithTransaction(func(repo TeamRepository) error {
		team, err := repo.GetTeamByID(teamID)
		if err != nil {
			return apperr.Internal("failed to load team", err)
		}
		if team == nil {
			return apperr.New(apperr.KindNotFound, "team not found")
		}

		captain, err := isCaptain(repo, teamID, requester.ID)
		if err != nil {
			return apperr.Internal("failed to check captaincy", err)
		}
		if !captain {
			return apperr.New(apperr.KindPermissionDenied, "only captains can delete the team")
		}

		roster, err := repo.GetRoster(teamID)
		if err != nil {
			return apperr.Internal("failed to load roster", err)
		}

		// Detach every rostered player's season membership before the rows
		// referencing them go away.
		for _, entry := range roster {
			m, err := repo.GetMembership(entry.PlayerID, team.SeasonID)
			if err != nil {
				return apperr.Internal("failed to load season membership", err)
			}
			if m == nil || m.TeamID == nil || *m.TeamID != team.ID {
				continue
			}
			m.TeamID = nil
			m.IsCaptain = false
			if err := repo.SaveMembership(m); err != nil {
				return apperr.Internal("failed to detach season membership", err)
			}
		}

		if err := repo.DeleteOffersByTeam(teamID); err != nil {
			return apperr.Internal("failed to delete team offers", err)
		}
		if err := repo.DeleteRosterByTeam(teamID); err != nil {
			return apperr.Internal("failed to delete roster", err)
		}
		if err := repo.DeleteTeam(teamID); err != nil {
			return apperr.Internal("failed to delete team", err)
		}

		deletedName = team.Name
		rosterSize = len(roster)
		return nil
	})

	if err != nil {
		responses.SendAppError(c, err)
		return
	}

	log.Info().Uint("team_id", teamID).Str("name", deletedName).
		Int("roster_size", rosterSize).Msg("Team deleted")
	responses.SendSuccess(c, http.StatusOK, "Team deleted successfully", gin.H{
		"team_id":                 teamID,
		"name":                    deletedName,
		"roster_size_at_deletion": rosterSize,
	})
}

// ManageTeamPlayer godoc
// @Summary Promote, demote or remove a roster player
// @Description Mutates one roster entry and its mirrored season membership in a single transaction.
// @Description promote/demote require the caller to be a captain; remove additionally allows self-removal.
// @Description Demoting or removing the last captain is rejected.
// @Tags Team Members
// @Produce json
// @Param team_id path uint true "Team ID"
// @Param player_id path uint true "Player ID"
// @Param action path string true "Action: 'promote', 'demote' or 'remove'"
// @Success 200 {object} responses.SuccessResponse "Action applied"
// @Failure 400 {object} responses.ErrorResponse "Invalid input or action"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 403 {object} responses.ErrorResponse "Forbidden"
// @Failure 404 {object} responses.ErrorResponse "Team, player or membership not found"
// @Failure 412 {object} responses.ErrorResponse "Would leave the team without a captain"
// @Security ApiKeyAuth
// @Router /teams/{team_id}/players/{player_id}/{action} [put]
func (tc *TeamController) ManageTeamPlayer(c *gin.Context) {
	requester, ok := requireVerifiedPlayer(c)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "team_id")
	if !ok {
		return
	}
	playerID, ok := parseIDParam(c, "player_id")
	if !ok {
		return
	}
	action := c.Param("action")
	if action != ActionPromote && action != ActionDemote && action != ActionRemove {
		responses.BadRequest(c, "Invalid action. Must be 'promote', 'demote' or 'remove'.")
		return
	}

	var message string
	err := tc.repo.WithTransaction(func(repo TeamRepository) error {
		team, err := repo.GetTeamByID(teamID)
		if err != nil {
			return apperr.Internal("failed to load team", err)
		}
		if team == nil {
			return apperr.New(apperr.KindNotFound, "team not found")
		}

		target, err := repo.GetPlayerByID(playerID)
		if err != nil {
			return apperr.Internal("failed to load player", err)
		}
		if target == nil {
			return apperr.New(apperr.KindNotFound, "player not found")
		}

		s, err := repo.GetSeasonByID(team.SeasonID)
		if err != nil {
			return apperr.Internal("failed to load season", err)
		}
		if s == nil {
			return apperr.New(apperr.KindNotFound, "season not found")
		}

		requesterIsCaptain, err := isCaptain(repo, teamID, requester.ID)
		if err != nil {
			return apperr.Internal("failed to check captaincy", err)
		}
		switch action {
		case ActionPromote, ActionDemote:
			if !requesterIsCaptain {
				return apperr.New(apperr.KindPermissionDenied, "only captains can "+action+" players")
			}
		case ActionRemove:
			if !requesterIsCaptain && requester.ID != playerID {
				return apperr.New(apperr.KindPermissionDenied, "only captains or the player themself can remove a player")
			}
		}

		entry, err := repo.GetRosterEntry(teamID, playerID)
		if err != nil {
			return apperr.Internal("failed to load roster entry", err)
		}
		if entry == nil {
			return apperr.New(apperr.KindNotFound, "player is not on this team")
		}

		m, err := repo.GetMembership(playerID, team.SeasonID)
		if err != nil {
			return apperr.Internal("failed to load season membership", err)
		}
		if m == nil {
			return apperr.New(apperr.KindNotFound, "season membership not found")
		}

		switch action {
		case ActionPromote:
			if entry.IsCaptain {
				return apperr.New(apperr.KindFailedPrecondition, "player is already a captain")
			}
			entry.IsCaptain = true
			m.IsCaptain = true
			if err := repo.UpdateRosterEntry(entry); err != nil {
				return apperr.Internal("failed to update roster entry", err)
			}
			if err := repo.SaveMembership(m); err != nil {
				return apperr.Internal("failed to update season membership", err)
			}
			message = "Player promoted to captain"

		case ActionDemote:
			if !entry.IsCaptain {
				return apperr.New(apperr.KindFailedPrecondition, "player is not a captain")
			}
			// Count from the fresh in-transaction read; a cached count could
			// let two concurrent demotes leave the team captainless.
			captains, err := repo.CountCaptains(teamID)
			if err != nil {
				return apperr.Internal("failed to count captains", err)
			}
			if captains <= 1 {
				return apperr.New(apperr.KindFailedPrecondition, "cannot demote the last captain")
			}
			entry.IsCaptain = false
			m.IsCaptain = false
			if err := repo.UpdateRosterEntry(entry); err != nil {
				return apperr.Internal("failed to update roster entry", err)
			}
			if err := repo.SaveMembership(m); err != nil {
				return apperr.Internal("failed to update season membership", err)
			}
			message = "Player demoted to member"

		case ActionRemove:
			if entry.IsCaptain {
				captains, err := repo.CountCaptains(teamID)
				if err != nil {
					return apperr.Internal("failed to count captains", err)
				}
				if captains <= 1 {
					return apperr.New(apperr.KindFailedPrecondition, "cannot remove the last captain")
				}
			}
			if err := repo.RemoveRosterEntry(teamID, playerID); err != nil {
				return apperr.Internal("failed to remove roster entry", err)
			}
			m.TeamID = nil
			m.IsCaptain = false
			if err := repo.SaveMembership(m); err != nil {
				return apperr.Internal("failed to update season membership", err)
			}
			message = "Player removed from team"
		}
		return nil
	})

	if err != nil {
		responses.SendAppError(c, err)
		return
	}

	log.Info().Uint("team_id", teamID).Uint("player_id", playerID).
		Str("action", action).Uint("by", requester.ID).Msg("Roster updated")
	responses.SendSuccess(c, http.StatusOK, message, gin.H{
		"action":  action,
		"message": message,
	})
}

// AdminGetAllTeams godoc
// @Summary (Admin) Get all teams
// @Description (Admin) Retrieves all teams across seasons, optionally including unregistered ones.
// @Tags Admin-Teams
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param include_unregistered query bool false "Include unregistered teams" default(false)
// @Success 200 {object} responses.PaginatedResponse{data=[]Team} "List of all teams"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 403 {object} responses.ErrorResponse "Forbidden - Admin access required"
// @Security ApiKeyAuth
// @Router /admin/teams [get]
func (tc *TeamController) AdminGetAllTeams(c *gin.Context) {
	page, limit := parsePagination(c)
	includeUnregistered, _ := strconv.ParseBool(c.DefaultQuery("include_unregistered", "false"))

	teams, total, err := tc.repo.GetAllTeamsAdmin(page, limit, includeUnregistered)
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve teams: "+err.Error())
		return
	}
	responses.SendPaginated(c, http.StatusOK, "All teams retrieved successfully", teams, total, page, limit)
}
