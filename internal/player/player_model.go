package player

import "gorm.io/gorm"

// Player represents a league participant, created once per identity-provider
// account.
type Player struct {
	gorm.Model
	ExternalID string `json:"external_id" gorm:"uniqueIndex;not null"` // identity-provider subject
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email" gorm:"uniqueIndex;not null"`
	IsAdmin    bool   `json:"is_admin" gorm:"default:false"`

	Memberships []SeasonMembership `json:"memberships,omitempty" gorm:"foreignKey:PlayerID"`
}

// SeasonMembership is the per-player, per-season record of team affiliation.
// At most one row exists per (player, season); TeamID is non-null exactly
// while the player appears in that team's roster. Rows are never deleted by
// the roster operations, only nulled out.
type SeasonMembership struct {
	gorm.Model
	PlayerID       uint  `json:"player_id" gorm:"uniqueIndex:idx_player_season;not null"`
	SeasonID       uint  `json:"season_id" gorm:"uniqueIndex:idx_player_season;not null"`
	TeamID         *uint `json:"team_id" gorm:"index"`
	IsCaptain      bool  `json:"is_captain" gorm:"default:false"`
	Paid           bool  `json:"paid" gorm:"default:false"`
	WaiverSigned   bool  `json:"waiver_signed" gorm:"default:false"`
	Banned         bool  `json:"banned" gorm:"default:false"`
	LookingForTeam bool  `json:"looking_for_team" gorm:"default:false"`
}

// OnTeam reports whether the membership currently points at a team.
func (m *SeasonMembership) OnTeam() bool {
	return m != nil && m.TeamID != nil
}
