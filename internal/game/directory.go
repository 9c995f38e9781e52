package game

import (
	"strings"
	"sync"
)

const maxCodeAttempts = 64

// Directory maps access codes to live games.
type Directory struct {
	mu    sync.RWMutex
	games map[string]*Game
	opts  Options
}

func NewDirectory(opts Options) *Directory {
	return &Directory{
		games: make(map[string]*Game),
		opts:  opts.withDefaults(),
	}
}

// Options returns the collaborators new and restored games are built with.
func (d *Directory) Options() Options { return d.opts }

func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Create registers an empty game under a fresh access code.
func (d *Directory) Create() (*Game, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for range maxCodeAttempts {
		code := d.opts.Tokens.Token(AccessCodeLength)
		if _, taken := d.games[code]; taken {
			continue
		}
		g := newGame(code, d.opts)
		d.games[code] = g
		return g, nil
	}
	return nil, ErrCodeSpaceExhausted
}

func (d *Directory) Get(code string) (*Game, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	g, ok := d.games[NormalizeCode(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

// Put registers a restored game. An existing entry under the same code wins.
func (d *Directory) Put(g *Game) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.games[g.code]; taken {
		return false
	}
	d.games[g.code] = g
	return true
}

// RemoveIfEmpty drops the game once nobody is seated in it. A removed game
// rejects every further action.
func (d *Directory) RemoveIfEmpty(code string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.games[code]
	if !ok {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.players) > 0 {
		return false
	}
	g.closed = true
	delete(d.games, code)
	return true
}

func (d *Directory) Remove(code string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if g, ok := d.games[code]; ok {
		g.mu.Lock()
		g.closed = true
		g.mu.Unlock()
		delete(d.games, code)
	}
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.games)
}

// Games returns the registered games in no particular order.
func (d *Directory) Games() []*Game {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Game, 0, len(d.games))
	for _, g := range d.games {
		out = append(out, g)
	}
	return out
}
