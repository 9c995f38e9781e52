package game

import (
	"fmt"
	"math/rand/v2"
)

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// ShufflerFunc adapts a plain function such as rand.Shuffle.
type ShufflerFunc func(n int, swap func(i, j int))

func (f ShufflerFunc) Shuffle(n int, swap func(i, j int)) { f(n, swap) }

// DefaultShuffler draws from the runtime-seeded global source.
var DefaultShuffler Shuffler = ShufflerFunc(rand.Shuffle)

// Assignment is the result of dealing roles: Roles[i] and Orders[i] belong
// to the i-th seated player.
type Assignment struct {
	Roles  []Role
	Orders []int
}

// Deck builds the unshuffled role list for n players.
func Deck(n int, enabled RoleSet) []Role {
	deck := make([]Role, 0, n)
	for _, r := range enabled.Roles() {
		if r.IsEvil() {
			deck = append(deck, r)
		}
	}
	evil := len(deck)
	for _, r := range enabled.Roles() {
		if !r.IsEvil() {
			deck = append(deck, r)
		}
	}
	for i := evil; i < NumSpies(n); i++ {
		deck = append(deck, RoleSpy)
	}
	for len(deck) < n {
		deck = append(deck, RoleLoyalServant)
	}
	return deck
}

// AssignRoles validates the configuration and deals roles and turn order
// for n players. Roles and seats are shuffled independently.
func AssignRoles(n int, enabled RoleSet, s Shuffler) (Assignment, error) {
	if err := enabled.Validate(n); err != nil {
		return Assignment{}, err
	}
	if s == nil {
		s = DefaultShuffler
	}

	roles := Deck(n, enabled)
	if len(roles) != n {
		// Validate guarantees this; a mismatch means the deck logic is broken.
		panic(fmt.Sprintf("game: dealt %d roles for %d players", len(roles), n))
	}

	orders := make([]int, n)
	for i := range orders {
		orders[i] = i
	}

	s.Shuffle(n, func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })
	s.Shuffle(n, func(i, j int) { orders[i], orders[j] = orders[j], orders[i] })

	return Assignment{Roles: roles, Orders: orders}, nil
}
