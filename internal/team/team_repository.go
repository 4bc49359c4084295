package team

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/leagueforge/leago/internal/player"
	"github.com/leagueforge/leago/internal/season"
	"github.com/leagueforge/leago/pkg/apperr"
)

// maxTxAttempts bounds retries of a transaction aborted by a concurrent
// conflicting commit.
const maxTxAttempts = 3

// TeamRepository defines the interface for team, roster and offer data
// operations. Mutating operations that touch more than one row must run via
// WithTransaction; inside the transaction all reads are fresh and all writes
// commit or abort together.
type TeamRepository interface {
	// Team operations
	CreateTeam(t *Team) error
	GetTeamByID(id uint) (*Team, error)
	GetTeamsBySeason(seasonID uint, page, limit int) ([]Team, int64, error)
	GetAllTeamsAdmin(page, limit int, includeUnregistered bool) ([]Team, int64, error)
	UpdateTeam(t *Team) error
	DeleteTeam(id uint) error

	// Roster operations
	AddRosterEntry(e *RosterEntry) error
	GetRosterEntry(teamID, playerID uint) (*RosterEntry, error)
	GetRoster(teamID uint) ([]RosterEntry, error)
	CountCaptains(teamID uint) (int64, error)
	UpdateRosterEntry(e *RosterEntry) error
	RemoveRosterEntry(teamID, playerID uint) error
	DeleteRosterByTeam(teamID uint) error

	// Player / membership lookups (the mirrored side of the roster)
	GetPlayerByID(id uint) (*player.Player, error)
	GetMembership(playerID, seasonID uint) (*player.SeasonMembership, error)
	SaveMembership(m *player.SeasonMembership) error

	// Season lookup
	GetSeasonByID(id uint) (*season.Season, error)

	// Offer operations
	CreateOffer(o *Offer) error
	GetOfferByID(id uint) (*Offer, error)
	GetPendingOffer(teamID, playerID uint) (*Offer, error)
	GetOffersByTeam(teamID uint, status string, page, limit int) ([]Offer, int64, error)
	GetOffersByPlayer(playerID uint, status string, page, limit int) ([]Offer, int64, error)
	UpdateOffer(o *Offer) error
	// CancelPendingOffersForPlayer closes every pending offer involving the
	// player in the season except the one being accepted. Returns the number
	// of offers closed.
	CancelPendingOffersForPlayer(playerID, seasonID, exceptOfferID uint) (int64, error)
	DeleteOffersByTeam(teamID uint) error

	WithTransaction(txFunc func(TeamRepository) error) error
}

type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new instance of TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

// --- Team Operations ---

func (r *teamRepository) CreateTeam(t *Team) error {
	return r.db.Create(t).Error
}

func (r *teamRepository) GetTeamByID(id uint) (*Team, error) {
	var t Team
	if err := r.db.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *teamRepository) GetTeamsBySeason(seasonID uint, page, limit int) ([]Team, int64, error) {
	var teams []Team
	var total int64

	query := r.db.Model(&Team{}).Where("season_id = ?", seasonID)
	query.Count(&total)
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&teams).Error; err != nil {
		return nil, 0, err
	}
	return teams, total, nil
}

func (r *teamRepository) GetAllTeamsAdmin(page, limit int, includeUnregistered bool) ([]Team, int64, error) {
	var teams []Team
	var total int64

	query := r.db.Model(&Team{})
	if !includeUnregistered {
		query = query.Where("registered = ?", true)
	}
	query.Count(&total)
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&teams).Error; err != nil {
		return nil, 0, err
	}
	return teams, total, nil
}

func (r *teamRepository) UpdateTeam(t *Team) error {
	return r.db.Save(t).Error
}

func (r *teamRepository) DeleteTeam(id uint) error {
	return r.db.Unscoped().Delete(&Team{}, id).Error
}

// --- Roster Operations ---

func (r *teamRepository) AddRosterEntry(e *RosterEntry) error {
	return r.db.Create(e).Error
}

func (r *teamRepository) GetRosterEntry(teamID, playerID uint) (*RosterEntry, error) {
	var e RosterEntry
	err := r.db.Where("team_id = ? AND player_id = ?", teamID, playerID).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *teamRepository) GetRoster(teamID uint) ([]RosterEntry, error) {
	var entries []RosterEntry
	if err := r.db.Where("team_id = ?", teamID).Order("created_at asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *teamRepository) CountCaptains(teamID uint) (int64, error) {
	var count int64
	err := r.db.Model(&RosterEntry{}).Where("team_id = ? AND is_captain = ?", teamID, true).Count(&count).Error
	return count, err
}

func (r *teamRepository) UpdateRosterEntry(e *RosterEntry) error {
	return r.db.Save(e).Error
}

func (r *teamRepository) RemoveRosterEntry(teamID, playerID uint) error {
	return r.db.Unscoped().Where("team_id = ? AND player_id = ?", teamID, playerID).Delete(&RosterEntry{}).Error
}

func (r *teamRepository) DeleteRosterByTeam(teamID uint) error {
	return r.db.Unscoped().Where("team_id = ?", teamID).Delete(&RosterEntry{}).Error
}

// --- Player / Membership Operations ---

func (r *teamRepository) GetPlayerByID(id uint) (*player.Player, error) {
	var p player.Player
	if err := r.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *teamRepository) GetMembership(playerID, seasonID uint) (*player.SeasonMembership, error) {
	var m player.SeasonMembership
	err := r.db.Where("player_id = ? AND season_id = ?", playerID, seasonID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *teamRepository) SaveMembership(m *player.SeasonMembership) error {
	return r.db.Save(m).Error
}

// --- Season Operations ---

func (r *teamRepository) GetSeasonByID(id uint) (*season.Season, error) {
	var s season.Season
	if err := r.db.First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// --- Offer Operations ---

func (r *teamRepository) CreateOffer(o *Offer) error {
	return r.db.Create(o).Error
}

func (r *teamRepository) GetOfferByID(id uint) (*Offer, error) {
	var o Offer
	if err := r.db.First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *teamRepository) GetPendingOffer(teamID, playerID uint) (*Offer, error) {
	var o Offer
	err := r.db.Where("team_id = ? AND player_id = ? AND status = ?", teamID, playerID, StatusPending).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *teamRepository) GetOffersByTeam(teamID uint, status string, page, limit int) ([]Offer, int64, error) {
	var offers []Offer
	var total int64
	query := r.db.Model(&Offer{}).Where("team_id = ?", teamID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&offers).Error; err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

func (r *teamRepository) GetOffersByPlayer(playerID uint, status string, page, limit int) ([]Offer, int64, error) {
	var offers []Offer
	var total int64
	query := r.db.Model(&Offer{}).Where("player_id = ?", playerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&offers).Error; err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

func (r *teamRepository) UpdateOffer(o *Offer) error {
	return r.db.Save(o).Error
}

func (r *teamRepository) CancelPendingOffersForPlayer(playerID, seasonID, exceptOfferID uint) (int64, error) {
	res := r.db.Model(&Offer{}).
		Where("player_id = ? AND season_id = ? AND status = ? AND id <> ?", playerID, seasonID, StatusPending, exceptOfferID).
		Update("status", StatusCancelled)
	return res.RowsAffected, res.Error
}

func (r *teamRepository) DeleteOffersByTeam(teamID uint) error {
	return r.db.Unscoped().Where("team_id = ?", teamID).Delete(&Offer{}).Error
}

// --- Transactions ---

// WithTransaction runs txFunc inside a SERIALIZABLE transaction. The store
// detects conflicting concurrent commits and aborts; aborted transactions
// are retried from scratch up to maxTxAttempts, so txFunc must re-read
// everything it validates and must not carry state across attempts.
func (r *teamRepository) WithTransaction(txFunc func(TeamRepository) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.db.Transaction(func(tx *gorm.DB) error {
			return txFunc(&teamRepository{db: tx})
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})

		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	log.Error().Err(err).Int("attempts", maxTxAttempts).Msg("Transaction retries exhausted")
	return apperr.Wrap(apperr.KindInternal, "operation aborted by concurrent updates, please retry", err)
}

// isSerializationFailure recognizes a transaction aborted by the store's
// conflict detection: SQLSTATE 40001 on PostgreSQL, lock contention on
// SQLite.
func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
