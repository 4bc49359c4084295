package team

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/leagueforge/leago/internal/player"
	"github.com/leagueforge/leago/pkg/apperr"
	"github.com/leagueforge/leago/pkg/responses"
	"github.com/leagueforge/leago/pkg/validator"
)

type CreateOfferRequest struct {
	PlayerID uint   `json:"player_id" binding:"required"`
	Creator  string `json:"creator" binding:"required,oneof=player captain"`
}

// CreateOffer godoc
// @Summary Create a team offer
// @Description Creates a pending offer between a team and a player. creator='captain' is an invitation
// @Description (caller must be a captain of the team); creator='player' is a join request (caller must be
// @Description the player). At most one pending offer may exist per (team, player) pair, and the player
// @Description must not already be on a team this season.
// @Tags Offers
// @Accept json
// @Produce json
// @Param team_id path uint true "Team ID"
// @Param offer body CreateOfferRequest true "Offer Data"
// @Success 201 {object} responses.SuccessResponse{data=Offer} "Offer created"
// @Failure 400 {object} responses.ErrorResponse "Invalid input"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 403 {object} responses.ErrorResponse "Forbidden"
// @Failure 404 {object} responses.ErrorResponse "Team or player not found"
// @Failure 409 {object} responses.ErrorResponse "Pending offer already exists"
// @Failure 412 {object} responses.ErrorResponse "Player already on a team this season"
// @Security ApiKeyAuth
// @Router /teams/{team_id}/offers [post]
func (tc *TeamController) CreateOffer(c *gin.Context) {
	requester, ok := requireVerifiedPlayer(c)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "team_id")
	if !ok {
		return
	}

	var req CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+validator.BindingMessage(err))
		return
	}

	var offer Offer
	err := tc.repo.WithTransaction(func(repo TeamRepository) error {
		team, err := repo.GetTeamByID(teamID)
		if err != nil {
			return apperr.Internal("failed to load team", err)
		}
		if team == nil {
			return apperr.New(apperr.KindNotFound, "team not found")
		}

		target, err := repo.GetPlayerByID(req.PlayerID)
		if err != nil {
			return apperr.Internal("failed to load player", err)
		}
		if target == nil {
			return apperr.New(apperr.KindNotFound, "player not found")
		}

		switch req.Creator {
		case CreatorCaptain:
			captain, err := isCaptain(repo, teamID, requester.ID)
			if err != nil {
				return apperr.Internal("failed to check captaincy", err)
			}
			if !captain {
				return apperr.New(apperr.KindPermissionDenied, "only captains can invite players")
			}
		case CreatorPlayer:
			if requester.ID != req.PlayerID {
				return apperr.New(apperr.KindPermissionDenied, "players can only request to join for themselves")
			}
		}

		m, err := repo.GetMembership(req.PlayerID, team.SeasonID)
		if err != nil {
			return apperr.Internal("failed to load season membership", err)
		}
		if m.OnTeam() {
			return apperr.New(apperr.KindFailedPrecondition, "player is already on a team this season")
		}

		existing, err := repo.GetPendingOffer(teamID, req.PlayerID)
		if err != nil {
			return apperr.Internal("failed to check pending offers", err)
		}
		if existing != nil {
			return apperr.New(apperr.KindAlreadyExists, "a pending offer between this team and player already exists")
		}

		offer = Offer{
			TeamID:   teamID,
			PlayerID: req.PlayerID,
			SeasonID: team.SeasonID,
			Creator:  req.Creator,
			Status:   StatusPending,
		}
		if err := repo.CreateOffer(&offer); err != nil {
			return apperr.Internal("failed to create offer", err)
		}
		return nil
	})

	if err != nil {
		responses.SendAppError(c, err)
		return
	}

	log.Info().Uint("offer_id", offer.ID).Uint("team_id", teamID).
		Uint("player_id", req.PlayerID).Str("creator", req.Creator).Msg("Offer created")
	responses.SendSuccess(c, http.StatusCreated, "Offer created successfully", offer)
}

// RespondToOffer godoc
// @Summary Respond to an offer
// @Description Accepts or rejects a pending offer. Acceptance is reserved for the party that did not
// @Description create the offer: captains accept join requests, players accept invitations. Either side
// @Description may reject; a rejection by the creating side withdraws the offer instead. Acceptance adds
// @Description the player to the roster as a regular member and cancels their other pending offers for
// @Description the season. Offers in a terminal state cannot be responded to again.
// @Tags Offers
// @Produce json
// @Param offer_id path uint true "Offer ID"
// @Param response path string true "Response: 'accept' or 'reject'"
// @Success 200 {object} responses.SuccessResponse{data=Offer} "Offer resolved"
// @Failure 400 {object} responses.ErrorResponse "Invalid input"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 403 {object} responses.ErrorResponse "Forbidden"
// @Failure 404 {object} responses.ErrorResponse "Offer not found"
// @Failure 412 {object} responses.ErrorResponse "Offer already resolved or player already on a team"
// @Security ApiKeyAuth
// @Router /offers/{offer_id}/{response} [put]
func (tc *TeamController) RespondToOffer(c *gin.Context) {
	requester, ok := requireVerifiedPlayer(c)
	if !ok {
		return
	}
	offerID, ok := parseIDParam(c, "offer_id")
	if !ok {
		return
	}
	response := c.Param("response")
	if response != "accept" && response != "reject" {
		responses.BadRequest(c, "Invalid response. Must be 'accept' or 'reject'.")
		return
	}

	var resolved *Offer
	var cascaded int64
	err := tc.repo.WithTransaction(func(repo TeamRepository) error {
		offer, err := repo.GetOfferByID(offerID)
		if err != nil {
			return apperr.Internal("failed to load offer", err)
		}
		if offer == nil {
			return apperr.New(apperr.KindNotFound, "offer not found")
		}
		if offer.Terminal() {
			return apperr.Newf(apperr.KindFailedPrecondition, "offer is already %s", offer.Status)
		}

		team, err := repo.GetTeamByID(offer.TeamID)
		if err != nil {
			return apperr.Internal("failed to load team", err)
		}
		if team == nil {
			return apperr.New(apperr.KindNotFound, "team not found")
		}

		requesterIsCaptain, err := isCaptain(repo, offer.TeamID, requester.ID)
		if err != nil {
			return apperr.Internal("failed to check captaincy", err)
		}
		requesterIsPlayer := requester.ID == offer.PlayerID
		if !requesterIsCaptain && !requesterIsPlayer {
			return apperr.New(apperr.KindPermissionDenied, "not a party to this offer")
		}

		// The side that created the offer cannot accept it.
		creatorSide := (offer.Creator == CreatorCaptain && requesterIsCaptain) ||
			(offer.Creator == CreatorPlayer && requesterIsPlayer)

		if response == "reject" {
			if creatorSide {
				offer.Status = StatusCancelled
			} else {
				offer.Status = StatusRejected
			}
			if err := repo.UpdateOffer(offer); err != nil {
				return apperr.Internal("failed to update offer", err)
			}
			resolved = offer
			return nil
		}

		if creatorSide {
			return apperr.New(apperr.KindPermissionDenied, "the creating side cannot accept its own offer")
		}

		m, err := repo.GetMembership(offer.PlayerID, offer.SeasonID)
		if err != nil {
			return apperr.Internal("failed to load season membership", err)
		}
		if m.OnTeam() {
			return apperr.New(apperr.KindFailedPrecondition, "player has already joined a team this season")
		}

		if err := repo.AddRosterEntry(&RosterEntry{
			TeamID:    offer.TeamID,
			PlayerID:  offer.PlayerID,
			IsCaptain: false,
		}); err != nil {
			return apperr.Internal("failed to add player to roster", err)
		}

		if m == nil {
			m = &player.SeasonMembership{
				PlayerID: offer.PlayerID,
				SeasonID: offer.SeasonID,
			}
		}
		m.TeamID = &offer.TeamID
		m.IsCaptain = false
		if err := repo.SaveMembership(m); err != nil {
			return apperr.Internal("failed to save season membership", err)
		}

		offer.Status = StatusAccepted
		if err := repo.UpdateOffer(offer); err != nil {
			return apperr.Internal("failed to update offer", err)
		}

		// The player is taken; every other pending offer for them this
		// season closes in the same transaction.
		cascaded, err = repo.CancelPendingOffersForPlayer(offer.PlayerID, offer.SeasonID, offer.ID)
		if err != nil {
			return apperr.Internal("failed to cancel competing offers", err)
		}
		resolved = offer
		return nil
	})

	if err != nil {
		responses.SendAppError(c, err)
		return
	}

	log.Info().Uint("offer_id", offerID).Str("status", resolved.Status).
		Int64("cancelled_competing", cascaded).Uint("by", requester.ID).Msg("Offer resolved")
	responses.SendSuccess(c, http.StatusOK, "Offer "+resolved.Status, resolved)
}

// GetTeamOffers godoc
// @Summary Get a team's offers
// @Description Retrieves offers referencing the team. Captain only. Filter by status with ?status=.
// @Tags Offers
// @Produce json
// @Param team_id path uint true "Team ID"
// @Param status query string false "Filter by status (pending, accepted, rejected, cancelled)"
// @Success 200 {object} responses.SuccessResponse{data=[]Offer} "Offers"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 403 {object} responses.ErrorResponse "Forbidden - Not a captain"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Security ApiKeyAuth
// @Router /teams/{team_id}/offers [get]
func (tc *TeamController) GetTeamOffers(c *gin.Context) {
	requester, err := player.FromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}
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

	captain, err := isCaptain(tc.repo, teamID, requester.ID)
	if err != nil {
		responses.InternalServerError(c, "Failed to check captaincy: "+err.Error())
		return
	}
	if !captain {
		responses.Forbidden(c, "Only captains can view team offers")
		return
	}

	page, limit := parsePagination(c)
	offers, total, err := tc.repo.GetOffersByTeam(teamID, c.Query("status"), page, limit)
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve offers: "+err.Error())
		return
	}
	responses.SendPaginated(c, http.StatusOK, "Offers retrieved successfully", offers, total, page, limit)
}

// GetMyOffers godoc
// @Summary Get the authenticated player's offers
// @Description Retrieves offers where the authenticated player is the player party. Filter by status with ?status=.
// @Tags Offers
// @Produce json
// @Param status query string false "Filter by status (pending, accepted, rejected, cancelled)"
// @Success 200 {object} responses.SuccessResponse{data=[]Offer} "Offers"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Security ApiKeyAuth
// @Router /players/me/offers [get]
func (tc *TeamController) GetMyOffers(c *gin.Context) {
	requester, err := player.FromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}

	page, limit := parsePagination(c)
	offers, total, err := tc.repo.GetOffersByPlayer(requester.ID, c.Query("status"), page, limit)
	if err != nil {
		responses.InternalServerError(c, "Failed to retrieve offers: "+err.Error())
		return
	}
	responses.SendPaginated(c, http.StatusOK, "Offers retrieved successfully", offers, total, page, limit)
}
