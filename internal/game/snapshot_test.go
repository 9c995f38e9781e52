package game

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestoredGameContinues(t *testing.T) {
	tb := merlinAssassinTable(t)
	tb.playRound([]string{"bob", "dan"})
	tb.propose("bob", "dan", "eve")
	_, err := tb.game.CastVote(tb.secrets["ann"], 2, 1, true)
	require.NoError(t, err)

	raw, err := json.Marshal(tb.game.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	restored, err := Restore(snap, testOptions(tb.clock))
	require.NoError(t, err)

	before, err := tb.game.View(tb.secrets["bob"])
	require.NoError(t, err)
	after, err := restored.View(tb.secrets["bob"])
	require.NoError(t, err)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("restored view differs (-live +restored):\n%s", diff)
	}

	tb.game = restored
	for _, name := range five[1:] {
		_, err := restored.CastVote(tb.secrets[name], 2, 1, true)
		require.NoError(t, err)
	}
	assert.Equal(t, PhaseMission, restored.Phase())
	out := tb.mission([]string{"bob", "dan", "eve"})
	assert.Equal(t, ResultSuccess, out.Result)
}

func TestSnapshotIsDetached(t *testing.T) {
	tb := merlinAssassinTable(t)
	tb.propose("bob", "dan")
	snap := tb.game.Snapshot()

	tb.voteAll(five...)
	assert.Empty(t, snap.Rounds[0].Proposals[0].Votes)
	assert.Equal(t, PhaseVoting, snap.Phase)
}

func TestRestoreRejectsBrokenSnapshots(t *testing.T) {
	good := merlinAssassinTable(t).game.Snapshot()

	cases := map[string]func(s *Snapshot){
		"short code":        func(s *Snapshot) { s.AccessCode = "abc" },
		"too few players":   func(s *Snapshot) { s.Players = s.Players[:3] },
		"unassigned role":   func(s *Snapshot) { s.Players[0].Role = RoleUnassigned },
		"duplicate order":   func(s *Snapshot) { s.Players[1].Order = s.Players[0].Order },
		"no rounds":         func(s *Snapshot) { s.Rounds = nil },
		"end without a win": func(s *Snapshot) { s.Phase = PhaseEnd },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			raw, err := json.Marshal(good)
			require.NoError(t, err)
			var s Snapshot
			require.NoError(t, json.Unmarshal(raw, &s))
			mutate(&s)

			_, err = Restore(s, Options{})
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}
