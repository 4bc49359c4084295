package team

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/leagueforge/leago/config"
	"github.com/leagueforge/leago/internal/middleware"
	"github.com/leagueforge/leago/internal/player"
	"github.com/leagueforge/leago/internal/season"
	"github.com/leagueforge/leago/internal/storage"
	"github.com/leagueforge/leago/pkg/apperr"
	"github.com/leagueforge/leago/pkg/responses"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db         *gorm.DB
	repo       TeamRepository
	controller *TeamController
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every session on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&player.Player{}, &player.SeasonMembership{},
		&season.Season{},
		&Team{}, &RosterEntry{}, &Offer{},
	))

	repo := NewTeamRepository(db)
	blobs := storage.NewDiskStore(t.TempDir(), "/public")
	controller := NewTeamController(repo, blobs, &config.Config{})
	return &testEnv{db: db, repo: repo, controller: controller}
}

func (e *testEnv) createPlayer(t *testing.T, name string) *player.Player {
	t.Helper()
	p := &player.Player{
		ExternalID: "idp|" + name,
		FirstName:  name,
		LastName:   "Tester",
		Email:      name + "@example.com",
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) createAdmin(t *testing.T, name string) *player.Player {
	t.Helper()
	p := e.createPlayer(t, name)
	p.IsAdmin = true
	require.NoError(t, e.db.Save(p).Error)
	return p
}

func (e *testEnv) createSeason(t *testing.T, name string, open bool) *season.Season {
	t.Helper()
	now := time.Now()
	s := &season.Season{Name: name}
	if open {
		s.RegistrationOpensAt = now.Add(-24 * time.Hour)
		s.RegistrationClosesAt = now.Add(24 * time.Hour)
	} else {
		s.RegistrationOpensAt = now.Add(-48 * time.Hour)
		s.RegistrationClosesAt = now.Add(-24 * time.Hour)
	}
	require.NoError(t, e.db.Create(s).Error)
	return s
}

// createTeam seeds a team with the given captain through the repository,
// mirroring what a successful CreateTeam request produces.
func (e *testEnv) createTeam(t *testing.T, name string, seasonID uint, captain *player.Player) *Team {
	t.Helper()
	now := time.Now()
	tm := &Team{
		TeamKey:      fmt.Sprintf("key-%s-%d", name, seasonID),
		Name:         name,
		SeasonID:     seasonID,
		Registered:   true,
		RegisteredAt: &now,
	}
	require.NoError(t, e.repo.CreateTeam(tm))
	require.NoError(t, e.repo.AddRosterEntry(&RosterEntry{
		TeamID: tm.ID, PlayerID: captain.ID, IsCaptain: true,
	}))
	teamID := tm.ID
	require.NoError(t, e.repo.SaveMembership(&player.SeasonMembership{
		PlayerID: captain.ID, SeasonID: seasonID, TeamID: &teamID, IsCaptain: true,
	}))
	return tm
}

// addMember adds a non-captain player to a team's roster and membership.
func (e *testEnv) addMember(t *testing.T, tm *Team, p *player.Player) {
	t.Helper()
	require.NoError(t, e.repo.AddRosterEntry(&RosterEntry{
		TeamID: tm.ID, PlayerID: p.ID, IsCaptain: false,
	}))
	teamID := tm.ID
	require.NoError(t, e.repo.SaveMembership(&player.SeasonMembership{
		PlayerID: p.ID, SeasonID: tm.SeasonID, TeamID: &teamID, IsCaptain: false,
	}))
}

// perform runs a handler with an authenticated, email-verified player in
// context, exactly as the auth middleware would set it up.
func perform(handler gin.HandlerFunc, p *player.Player, body any, params ...gin.Param) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	c.Request = httptest.NewRequest(http.MethodPost, "/", reqBody)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params

	if p != nil {
		c.Set(player.AuthPlayerKey, p)
		c.Set(middleware.AuthVerifiedKey, true)
		c.Set(middleware.AuthSubjectKey, p.ExternalID)
		c.Set(middleware.AuthEmailKey, p.Email)
	}

	handler(c)
	return w
}

func param(key string, value any) gin.Param {
	return gin.Param{Key: key, Value: fmt.Sprint(value)}
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp responses.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Kind
}

// --- Team creation ---

func TestCreateTeamMakesCreatorSoleCaptain(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")

	w := perform(e.controller.CreateTeam, alice, CreateTeamRequest{
		Name: "Red Dragons", SeasonID: s.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	teams, _, err := e.repo.GetTeamsBySeason(s.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Red Dragons", teams[0].Name)
	assert.NotEmpty(t, teams[0].TeamKey)

	roster, err := e.repo.GetRoster(teams[0].ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, alice.ID, roster[0].PlayerID)
	assert.True(t, roster[0].IsCaptain)

	m, err := e.repo.GetMembership(alice.ID, s.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NotNil(t, m.TeamID)
	assert.Equal(t, teams[0].ID, *m.TeamID)
	assert.True(t, m.IsCaptain)
}

func TestCreateTeamRejectsSecondTeamInSeason(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	e.createTeam(t, "Red", s.ID, alice)

	w := perform(e.controller.CreateTeam, alice, CreateTeamRequest{
		Name: "Blue Second", SeasonID: s.ID,
	})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "already-exists", errorKind(t, w))

	teams, _, err := e.repo.GetTeamsBySeason(s.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, teams, 1)
}

func TestCreateTeamAllowedInAnotherSeason(t *testing.T) {
	e := newTestEnv(t)
	s1 := e.createSeason(t, "Summer 2026", true)
	s2 := e.createSeason(t, "Fall 2026", true)
	alice := e.createPlayer(t, "alice")
	e.createTeam(t, "Red", s1.ID, alice)

	w := perform(e.controller.CreateTeam, alice, CreateTeamRequest{
		Name: "Red Again", SeasonID: s2.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateTeamOutsideRegistrationWindow(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Closed 2026", false)
	alice := e.createPlayer(t, "alice")

	w := perform(e.controller.CreateTeam, alice, CreateTeamRequest{
		Name: "Too Late", SeasonID: s.ID,
	})
	require.Equal(t, http.StatusPreconditionFailed, w.Code, w.Body.String())
	assert.Equal(t, "failed-precondition", errorKind(t, w))
	assert.Contains(t, w.Body.String(), "registration window closed")

	// Admins bypass the window.
	admin := e.createAdmin(t, "root")
	w = perform(e.controller.CreateTeam, admin, CreateTeamRequest{
		Name: "Late But Admin", SeasonID: s.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateTeamUnknownSeason(t *testing.T) {
	e := newTestEnv(t)
	alice := e.createPlayer(t, "alice")

	w := perform(e.controller.CreateTeam, alice, CreateTeamRequest{
		Name: "Nowhere", SeasonID: 999,
	})
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	assert.Equal(t, "not-found", errorKind(t, w))
}

// --- Roster management ---

func TestPromoteAndDemote(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	bob := e.createPlayer(t, "bob")
	tm := e.createTeam(t, "Red", s.ID, alice)
	e.addMember(t, tm, bob)

	w := perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", bob.ID), param("action", ActionPromote))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	entry, err := e.repo.GetRosterEntry(tm.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, entry.IsCaptain)
	m, err := e.repo.GetMembership(bob.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, m.IsCaptain)

	w = perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", bob.ID), param("action", ActionDemote))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	entry, err = e.repo.GetRosterEntry(tm.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, entry.IsCaptain)
	m, err = e.repo.GetMembership(bob.ID, s.ID)
	require.NoError(t, err)
	assert.False(t, m.IsCaptain)
}

func TestDemoteLastCaptainFails(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	tm := e.createTeam(t, "Red", s.ID, alice)

	w := perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", alice.ID), param("action", ActionDemote))
	require.Equal(t, http.StatusPreconditionFailed, w.Code, w.Body.String())
	assert.Equal(t, "failed-precondition", errorKind(t, w))

	// The failed demote must not have touched anything.
	entry, err := e.repo.GetRosterEntry(tm.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, entry.IsCaptain)
	m, err := e.repo.GetMembership(alice.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, m.IsCaptain)
}

func TestRemoveLastCaptainFails(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	bob := e.createPlayer(t, "bob")
	tm := e.createTeam(t, "Red", s.ID, alice)
	e.addMember(t, tm, bob)

	w := perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", alice.ID), param("action", ActionRemove))
	require.Equal(t, http.StatusPreconditionFailed, w.Code, w.Body.String())

	count, err := e.repo.CountCaptains(tm.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestDemoteRaceLeavesOneCaptain(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	bob := e.createPlayer(t, "bob")
	tm := e.createTeam(t, "Red", s.ID, alice)
	e.addMember(t, tm, bob)

	w := perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", bob.ID), param("action", ActionPromote))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Both captains try to demote the other. Whoever lands second has lost
	// captaincy in the meantime and must fail; one captain always remains.
	w1 := perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", bob.ID), param("action", ActionDemote))
	w2 := perform(e.controller.ManageTeamPlayer, bob, nil,
		param("team_id", tm.ID), param("player_id", alice.ID), param("action", ActionDemote))

	require.Equal(t, http.StatusOK, w1.Code, w1.Body.String())
	require.Equal(t, http.StatusForbidden, w2.Code, w2.Body.String())

	count, err := e.repo.CountCaptains(tm.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestDemoteBackToBackHitsCaptainFloor(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	bob := e.createPlayer(t, "bob")
	tm := e.createTeam(t, "Red", s.ID, alice)
	e.addMember(t, tm, bob)

	w := perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", bob.ID), param("action", ActionPromote))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The same captain demotes the co-captain and then themself. The second
	// demote finds only one captain left on the fresh count and is refused
	// as a precondition failure.
	w1 := perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", bob.ID), param("action", ActionDemote))
	require.Equal(t, http.StatusOK, w1.Code, w1.Body.String())

	w2 := perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", alice.ID), param("action", ActionDemote))
	require.Equal(t, http.StatusPreconditionFailed, w2.Code, w2.Body.String())
	assert.Equal(t, string(apperr.KindFailedPrecondition), errorKind(t, w2))

	count, err := e.repo.CountCaptains(tm.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMemberCanRemoveSelf(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	bob := e.createPlayer(t, "bob")
	tm := e.createTeam(t, "Red", s.ID, alice)
	e.addMember(t, tm, bob)

	w := perform(e.controller.ManageTeamPlayer, bob, nil,
		param("team_id", tm.ID), param("player_id", bob.ID), param("action", ActionRemove))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	entry, err := e.repo.GetRosterEntry(tm.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, entry)
	m, err := e.repo.GetMembership(bob.ID, s.ID)
	require.NoError(t, err)
	assert.Nil(t, m.TeamID)
}

func TestNonCaptainCannotPromoteOrRemoveOthers(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	bob := e.createPlayer(t, "bob")
	carol := e.createPlayer(t, "carol")
	tm := e.createTeam(t, "Red", s.ID, alice)
	e.addMember(t, tm, bob)
	e.addMember(t, tm, carol)

	w := perform(e.controller.ManageTeamPlayer, bob, nil,
		param("team_id", tm.ID), param("player_id", carol.ID), param("action", ActionPromote))
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = perform(e.controller.ManageTeamPlayer, bob, nil,
		param("team_id", tm.ID), param("player_id", carol.ID), param("action", ActionRemove))
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
}

func TestManagePlayerUnknownAction(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	tm := e.createTeam(t, "Red", s.ID, alice)

	w := perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", alice.ID), param("action", "banish"))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

// --- Team deletion ---

func TestDeleteTeamCascades(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	bob := e.createPlayer(t, "bob")
	dave := e.createPlayer(t, "dave")
	tm := e.createTeam(t, "Red", s.ID, alice)
	e.addMember(t, tm, bob)

	// A pending offer to a third player must disappear with the team.
	require.NoError(t, e.repo.CreateOffer(&Offer{
		TeamID: tm.ID, PlayerID: dave.ID, SeasonID: s.ID,
		Creator: CreatorCaptain, Status: StatusPending,
	}))

	w := perform(e.controller.DeleteTeam, alice, nil, param("team_id", tm.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"roster_size_at_deletion":2`)

	gone, err := e.repo.GetTeamByID(tm.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	roster, err := e.repo.GetRoster(tm.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)

	offers, _, err := e.repo.GetOffersByTeam(tm.ID, "", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, offers)

	for _, p := range []*player.Player{alice, bob} {
		m, err := e.repo.GetMembership(p.ID, s.ID)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Nil(t, m.TeamID)
		assert.False(t, m.IsCaptain)
	}
}

func TestDeleteTeamRequiresCaptain(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	bob := e.createPlayer(t, "bob")
	tm := e.createTeam(t, "Red", s.ID, alice)
	e.addMember(t, tm, bob)

	w := perform(e.controller.DeleteTeam, bob, nil, param("team_id", tm.ID))
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	still, err := e.repo.GetTeamByID(tm.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

// --- Team update ---

func TestUpdateTeamCaptainOnly(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	bob := e.createPlayer(t, "bob")
	tm := e.createTeam(t, "Red", s.ID, alice)
	e.addMember(t, tm, bob)

	newName := "Crimson"
	w := perform(e.controller.UpdateTeam, bob, UpdateTeamRequest{Name: &newName},
		param("team_id", tm.ID))
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = perform(e.controller.UpdateTeam, alice, UpdateTeamRequest{Name: &newName},
		param("team_id", tm.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated, err := e.repo.GetTeamByID(tm.ID)
	require.NoError(t, err)
	assert.Equal(t, "Crimson", updated.Name)
}

// --- Full lifecycle ---

func TestTeamLifecycleEndToEnd(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSeason(t, "Summer 2026", true)
	alice := e.createPlayer(t, "alice")
	bob := e.createPlayer(t, "bob")

	// Alice founds the team.
	w := perform(e.controller.CreateTeam, alice, CreateTeamRequest{
		Name: "Red", SeasonID: s.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	teams, _, err := e.repo.GetTeamsBySeason(s.ID, 1, 10)
	require.NoError(t, err)
	tm := teams[0]

	// Bob asks to join, Alice accepts.
	w = perform(e.controller.CreateOffer, bob, CreateOfferRequest{
		PlayerID: bob.ID, Creator: CreatorPlayer,
	}, param("team_id", tm.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	offer, err := e.repo.GetPendingOffer(tm.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, offer)

	w = perform(e.controller.RespondToOffer, alice, nil,
		param("offer_id", offer.ID), param("response", "accept"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Bob becomes co-captain, then Alice steps down and leaves.
	w = perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", bob.ID), param("action", ActionPromote))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", alice.ID), param("action", ActionDemote))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = perform(e.controller.ManageTeamPlayer, alice, nil,
		param("team_id", tm.ID), param("player_id", alice.ID), param("action", ActionRemove))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	roster, err := e.repo.GetRoster(tm.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, bob.ID, roster[0].PlayerID)
	assert.True(t, roster[0].IsCaptain)

	m, err := e.repo.GetMembership(alice.ID, s.ID)
	require.NoError(t, err)
	assert.Nil(t, m.TeamID)
}
