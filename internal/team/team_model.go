package team

import (
	"time"

	"gorm.io/gorm"
)

// Team represents one season-scoped team instance. TeamKey is the stable
// cross-season franchise identity, distinct from the storage id, linking a
// franchise's roster and placement history across seasons.
type Team struct {
	gorm.Model
	TeamKey      string     `json:"team_key" gorm:"uniqueIndex;not null"`
	Name         string     `json:"name" gorm:"not null"`
	Logo         string     `json:"logo"`
	StoragePath  string     `json:"storage_path"`
	SeasonID     uint       `json:"season_id" gorm:"index;not null"`
	Registered   bool       `json:"registered" gorm:"default:false"`
	RegisteredAt *time.Time `json:"registered_at"`
	Placement    *int       `json:"placement"`
	Karma        int        `json:"karma" gorm:"default:0"`

	Roster []RosterEntry `json:"roster,omitempty" gorm:"foreignKey:TeamID"`
}

// RosterEntry is one player's place on a team's roster. While a team exists
// its roster carries at least one captain; that invariant is enforced by the
// roster operations, always from fresh in-transaction reads.
type RosterEntry struct {
	gorm.Model
	TeamID    uint `json:"team_id" gorm:"uniqueIndex:idx_roster_team_player;not null"`
	PlayerID  uint `json:"player_id" gorm:"uniqueIndex:idx_roster_team_player;not null"`
	IsCaptain bool `json:"is_captain" gorm:"default:false"`
}

// Offer is a proposed roster change: a player's request to join, or a
// captain's invite. Status transitions are monotonic: once an offer leaves
// pending it never changes again.
type Offer struct {
	gorm.Model
	TeamID   uint   `json:"team_id" gorm:"index;not null"`
	PlayerID uint   `json:"player_id" gorm:"index;not null"`
	SeasonID uint   `json:"season_id" gorm:"index;not null"`
	Creator  string `json:"creator" gorm:"not null"` // "player" or "captain"
	Status   string `json:"status" gorm:"default:'pending'"`
}

const (
	CreatorPlayer  = "player"
	CreatorCaptain = "captain"

	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	// StatusCancelled marks offers withdrawn by their creator or closed out
	// because a competing offer was accepted.
	StatusCancelled = "cancelled"

	ActionPromote = "promote"
	ActionDemote  = "demote"
	ActionRemove  = "remove"
)

// Terminal reports whether the offer has left the pending state.
func (o *Offer) Terminal() bool {
	return o.Status != StatusPending
}
