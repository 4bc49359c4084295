package season

import (
	"time"

	"gorm.io/gorm"
)

// Season represents one competition season. Registration actions are only
// permitted while the registration window contains "now", unless the caller
// is an administrator.
type Season struct {
	gorm.Model
	Name                 string    `json:"name" gorm:"uniqueIndex;not null"`
	RegistrationOpensAt  time.Time `json:"registration_opens_at"`
	RegistrationClosesAt time.Time `json:"registration_closes_at"`
}

// RegistrationOpen reports whether the registration window contains now.
func (s *Season) RegistrationOpen(now time.Time) bool {
	return !now.Before(s.RegistrationOpensAt) && !now.After(s.RegistrationClosesAt)
}

// WindowString formats the registration window for user-facing errors.
func (s *Season) WindowString() string {
	const layout = "Jan 2 2006 15:04 MST"
	return s.RegistrationOpensAt.Format(layout) + " to " + s.RegistrationClosesAt.Format(layout)
}
