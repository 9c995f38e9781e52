package game

import (
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

const MaxNameLength = 80

type Player struct {
	ID     string
	Name   string
	Secret string
	Role   Role
	Order  int
	Ready  bool

	// unix nanos; written under a read lock by views, hence atomic
	lastActive atomic.Int64
}

func (p *Player) touch(now time.Time) {
	p.lastActive.Store(now.UnixNano())
}

func (p *Player) LastActive() time.Time {
	return time.Unix(0, p.lastActive.Load())
}

func (p *Player) idle(now time.Time, expiry time.Duration) bool {
	return now.Sub(p.LastActive()) > expiry
}

// Credentials is what a player needs to act in a game.
type Credentials struct {
	AccessCode string `json:"access_code"`
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	Secret     string `json:"secret"`
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}
