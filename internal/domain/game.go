package domain

import (
	"encoding/json"
	"time"
)

// GameRecord is the persisted snapshot of a live game
type GameRecord struct {
	AccessCode string          `db:"access_code" json:"access_code"`
	Phase      string          `db:"phase" json:"phase"`
	Version    int64           `db:"version" json:"version"`
	Snapshot   json.RawMessage `db:"snapshot" json:"snapshot"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// RosterEntry - one seat of a finished game
type RosterEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Faction  string `json:"faction"`
}

// RoundRecord - summary of one played round
type RoundRecord struct {
	Num       int    `json:"num"`
	Result    string `json:"result"`
	Proposals int    `json:"proposals"`
	Fails     int    `json:"fails"`
}

// GameHistory - a finished game
type GameHistory struct {
	ID          int64         `db:"id" json:"id"`
	AccessCode  string        `db:"access_code" json:"access_code"`
	PlayerCount int           `db:"player_count" json:"player_count"`
	Winner      string        `db:"winner" json:"winner"`
	Reason      string        `db:"reason" json:"reason"`
	Rounds      []RoundRecord `db:"rounds" json:"rounds"`
	Roster      []RosterEntry `db:"roster" json:"roster"`
	FinishedAt  time.Time     `db:"finished_at" json:"finished_at"`
}
