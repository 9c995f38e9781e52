package domain

import "time"

// GameEvent is an audit entry for an accepted player action
type GameEvent struct {
	ID         int64          `db:"id" json:"id"`
	AccessCode string         `db:"access_code" json:"access_code"`
	PlayerID   string         `db:"player_id" json:"player_id,omitempty"`
	Action     string         `db:"action" json:"action"`
	Phase      string         `db:"phase" json:"phase"`
	Details    map[string]any `db:"details" json:"details"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// Game event actions
const (
	EventCreate       = "create"
	EventJoin         = "join"
	EventLeave        = "leave"
	EventStart        = "start"
	EventReady        = "ready"
	EventChoose       = "choose"
	EventRemove       = "remove"
	EventSubmitTeam   = "submit_team"
	EventPropose      = "propose"
	EventVote         = "vote"
	EventMission      = "mission"
	EventAssassinate  = "assassinate"
	EventForceResolve = "force_resolve"
	EventGameClosed   = "closed"
)
