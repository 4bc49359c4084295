package season

import (
	"errors"

	"gorm.io/gorm"
)

// SeasonRepository defines the interface for season data operations
type SeasonRepository interface {
	CreateSeason(s *Season) error
	GetSeasonByID(id uint) (*Season, error)
	GetAllSeasons(page, limit int) ([]Season, int64, error)
	UpdateSeason(s *Season) error
}

type seasonRepository struct {
	db *gorm.DB
}

// NewSeasonRepository creates a new instance of SeasonRepository
func NewSeasonRepository(db *gorm.DB) SeasonRepository {
	return &seasonRepository{db: db}
}

func (r *seasonRepository) CreateSeason(s *Season) error {
	return r.db.Create(s).Error
}

func (r *seasonRepository) GetSeasonByID(id uint) (*Season, error) {
	var s Season
	if err := r.db.First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *seasonRepository) GetAllSeasons(page, limit int) ([]Season, int64, error) {
	var seasons []Season
	var total int64

	query := r.db.Model(&Season{})
	query.Count(&total)
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("registration_opens_at desc").Find(&seasons).Error; err != nil {
		return nil, 0, err
	}
	return seasons, total, nil
}

func (r *seasonRepository) UpdateSeason(s *Season) error {
	return r.db.Save(s).Error
}
