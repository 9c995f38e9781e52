package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// noShuffle leaves deck and seat order untouched, so the i-th player to
// join gets Deck(n)[i] and turn order i.
var noShuffle = ShufflerFunc(func(int, func(i, j int)) {})

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// seqTokens yields distinct lowercase tokens in a fixed sequence.
func seqTokens() TokenSource {
	var mu sync.Mutex
	n := 0
	return TokenFunc(func(length int) string {
		mu.Lock()
		defer mu.Unlock()
		n++
		b := []byte(fmt.Sprintf("%0*d", length, n))
		for i := range b {
			b[i] = 'a' + (b[i] - '0')
		}
		return string(b)
	})
}

func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("p%d", n)
	}
}

type table struct {
	t       *testing.T
	clock   *fakeClock
	game    *Game
	secrets map[string]string // name -> secret
	ids     map[string]string // name -> id
	names   []string
}

func testOptions(clock *fakeClock) Options {
	return Options{
		Shuffler:   noShuffle,
		Tokens:     seqTokens(),
		Clock:      clock.Now,
		NewID:      seqIDs(),
		IdleExpiry: 30 * time.Second,
	}
}

// newTable seats the named players in a fresh lobby.
func newTable(t *testing.T, names ...string) *table {
	t.Helper()
	clock := newFakeClock()
	tb := &table{
		t:       t,
		clock:   clock,
		game:    newGame("abcdef", testOptions(clock)),
		secrets: map[string]string{},
		ids:     map[string]string{},
	}
	for _, name := range names {
		tb.join(name)
	}
	return tb
}

func (tb *table) join(name string) Credentials {
	tb.t.Helper()
	creds, err := tb.game.Join(name)
	require.NoError(tb.t, err)
	if _, seen := tb.secrets[name]; !seen {
		tb.names = append(tb.names, name)
	}
	tb.secrets[name] = creds.Secret
	tb.ids[name] = creds.PlayerID
	return creds
}

// started seats players, deals with noShuffle and readies everyone.
func startedTable(t *testing.T, roles RoleSet, names ...string) *table {
	t.Helper()
	tb := newTable(t, names...)
	require.NoError(t, tb.game.Start(tb.secrets[names[0]], StartConfig{Roles: roles, DisplayHistory: true}))
	for _, name := range names {
		_, err := tb.game.MarkReady(tb.secrets[name])
		require.NoError(t, err)
	}
	require.Equal(t, PhaseTeamBuilding, tb.game.Phase())
	return tb
}

func (tb *table) idsOf(names ...string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, tb.ids[n])
	}
	return out
}

func (tb *table) proposer() string {
	tb.t.Helper()
	g := tb.game
	g.mu.RLock()
	defer g.mu.RUnlock()
	id := g.currentRound().current().Proposer
	for name, pid := range tb.ids {
		if pid == id {
			return name
		}
	}
	tb.t.Fatalf("proposer %s not seated", id)
	return ""
}

func (tb *table) round() (round, proposal int) {
	g := tb.game
	g.mu.RLock()
	defer g.mu.RUnlock()
	r := g.currentRound()
	return r.Num, r.current().Num
}

func (tb *table) propose(team ...string) {
	tb.t.Helper()
	r, p := tb.round()
	require.NoError(tb.t, tb.game.ProposeTeam(tb.secrets[tb.proposer()], r, p, tb.idsOf(team...)))
}

// voteAll casts votes for every player; approvers vote yes.
func (tb *table) voteAll(approvers ...string) VoteOutcome {
	tb.t.Helper()
	yes := map[string]bool{}
	for _, n := range approvers {
		yes[n] = true
	}
	r, p := tb.round()
	var out VoteOutcome
	for _, name := range tb.names {
		o, err := tb.game.CastVote(tb.secrets[name], r, p, yes[name])
		require.NoError(tb.t, err)
		if o.Resolved {
			out = o
		}
	}
	require.True(tb.t, out.Resolved)
	return out
}

// mission submits cards for the team; failers play fail.
func (tb *table) mission(team []string, failers ...string) MissionOutcome {
	tb.t.Helper()
	fail := map[string]bool{}
	for _, n := range failers {
		fail[n] = true
	}
	r, _ := tb.round()
	var out MissionOutcome
	for _, name := range team {
		o, err := tb.game.SubmitMission(tb.secrets[name], r, !fail[name])
		require.NoError(tb.t, err)
		if o.Resolved {
			out = o
		}
	}
	require.True(tb.t, out.Resolved)
	return out
}

// playRound proposes team, approves unanimously and runs the mission.
func (tb *table) playRound(team []string, failers ...string) MissionOutcome {
	tb.t.Helper()
	tb.propose(team...)
	tb.voteAll(tb.names...)
	return tb.mission(team, failers...)
}
