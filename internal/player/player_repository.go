package player

import (
	"errors"

	"gorm.io/gorm"
)

// PlayerRepository defines the interface for player data operations
type PlayerRepository interface {
	CreatePlayer(p *Player) error
	GetPlayerByID(id uint) (*Player, error)
	GetPlayerByExternalID(externalID string) (*Player, error)
	GetPlayerWithMemberships(id uint) (*Player, error)
	UpdatePlayer(p *Player) error
	GetAllPlayers(page, limit int) ([]Player, int64, error)

	GetMembership(playerID, seasonID uint) (*SeasonMembership, error)
	SaveMembership(m *SeasonMembership) error
}

type playerRepository struct {
	db *gorm.DB
}

// NewPlayerRepository creates a new instance of PlayerRepository
func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepository{db: db}
}

func (r *playerRepository) CreatePlayer(p *Player) error {
	return r.db.Create(p).Error
}

func (r *playerRepository) GetPlayerByID(id uint) (*Player, error) {
	var p Player
	if err := r.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *playerRepository) GetPlayerByExternalID(externalID string) (*Player, error) {
	var p Player
	if err := r.db.Where("external_id = ?", externalID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *playerRepository) GetPlayerWithMemberships(id uint) (*Player, error) {
	var p Player
	if err := r.db.Preload("Memberships").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *playerRepository) UpdatePlayer(p *Player) error {
	return r.db.Save(p).Error
}

func (r *playerRepository) GetAllPlayers(page, limit int) ([]Player, int64, error) {
	var players []Player
	var total int64

	query := r.db.Model(&Player{})
	query.Count(&total)
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at asc").Find(&players).Error; err != nil {
		return nil, 0, err
	}
	return players, total, nil
}

func (r *playerRepository) GetMembership(playerID, seasonID uint) (*SeasonMembership, error) {
	var m SeasonMembership
	err := r.db.Where("player_id = ? AND season_id = ?", playerID, seasonID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *playerRepository) SaveMembership(m *SeasonMembership) error {
	return r.db.Save(m).Error
}
