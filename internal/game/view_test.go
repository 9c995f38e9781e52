package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewIsIdempotent(t *testing.T) {
	tb := merlinAssassinTable(t)
	tb.playRound([]string{"bob", "dan"})
	tb.propose("bob", "cat", "eve")

	for _, name := range five {
		first, err := tb.game.View(tb.secrets[name])
		require.NoError(t, err)
		second, err := tb.game.View(tb.secrets[name])
		require.NoError(t, err)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("view for %s changed without a mutation (-first +second):\n%s", name, diff)
		}
	}
}

func TestViewPerception(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	// deck: Assassin, Morgana, Merlin, Percival, Spy, Servant, Servant
	tb := startedTable(t, NewRoleSet(RoleMerlin, RolePercival, RoleAssassin, RoleMorgana), names...)

	merlin, err := tb.game.View(tb.secrets["c"])
	require.NoError(t, err)
	assert.Equal(t, RoleMerlin, merlin.You.Role)
	assert.Equal(t, FactionGood, merlin.You.Faction)
	assert.Equal(t, []string{"a", "b", "e"}, merlin.VisibleSpies)
	assert.Empty(t, merlin.PossibleMerlins)

	percival, err := tb.game.View(tb.secrets["d"])
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, percival.PossibleMerlins)
	assert.Equal(t, "b or c", percival.PossibleMerlinsText)
	assert.Empty(t, percival.VisibleSpies)

	assassin, err := tb.game.View(tb.secrets["a"])
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "e"}, assassin.VisibleSpies)

	servant, err := tb.game.View(tb.secrets["f"])
	require.NoError(t, err)
	assert.Empty(t, servant.VisibleSpies)
	for _, p := range servant.Players {
		assert.Equal(t, PerceiveNothing, p.Perception)
		assert.Equal(t, RoleUnassigned, p.Role, "roles stay hidden until the end")
	}
	assert.False(t, servant.HasMordred)
}

func TestViewMordredHiddenFromMerlin(t *testing.T) {
	// deck: Assassin, Mordred, Merlin, Servant, Servant
	tb := startedTable(t, NewRoleSet(RoleMerlin, RoleAssassin, RoleMordred), five...)

	merlin, err := tb.game.View(tb.secrets["cat"])
	require.NoError(t, err)
	assert.Equal(t, []string{"ann"}, merlin.VisibleSpies)
	assert.True(t, merlin.HasMordred)

	mordred, err := tb.game.View(tb.secrets["bob"])
	require.NoError(t, err)
	assert.Equal(t, []string{"ann"}, mordred.VisibleSpies)
}

func TestViewScoreboard(t *testing.T) {
	tb := merlinAssassinTable(t)
	tb.playRound([]string{"bob", "dan"})
	tb.playRound([]string{"ann", "dan", "eve"}, "ann")

	v, err := tb.game.View(tb.secrets["dan"])
	require.NoError(t, err)

	want := []RoundScore{
		{Num: 1, MissionSize: "2", Winner: "Resistance"},
		{Num: 2, MissionSize: "3", Winner: "Spies"},
		{Num: 3, MissionSize: "2", Winner: ""},
		{Num: 4, MissionSize: "3", Winner: ""},
		{Num: 5, MissionSize: "3", Winner: ""},
	}
	assert.Equal(t, want, v.Rounds)
	assert.Equal(t, 3, v.RoundNum)
	assert.Equal(t, 2, v.TeamSize)
	require.NotNil(t, v.LastVote)
	assert.Len(t, v.LastVote.Votes, 5)
	require.Len(t, v.History, 3)
	assert.Equal(t, 1, v.History[1].Mission.Fails)
}

func TestViewLobby(t *testing.T) {
	tb := newTable(t, "ann", "bob")
	v, err := tb.game.View(tb.secrets["bob"])
	require.NoError(t, err)

	assert.Equal(t, PhaseLobby, v.Phase)
	assert.Empty(t, v.Rounds, "no scoreboard below five players")
	assert.Nil(t, v.Proposal)
	require.Len(t, v.Players, 2)
	assert.True(t, v.Players[1].IsYou)
	assert.Equal(t, RoleUnassigned, v.You.Role)
}

func TestViewHidesVotesUntilResolved(t *testing.T) {
	tb := merlinAssassinTable(t)
	tb.propose("bob", "dan")
	_, err := tb.game.CastVote(tb.secrets["cat"], 1, 1, false)
	require.NoError(t, err)

	v, err := tb.game.View(tb.secrets["dan"])
	require.NoError(t, err)
	require.NotNil(t, v.Proposal)
	assert.Equal(t, []string{tb.ids["cat"]}, v.Proposal.Voted)
	assert.Nil(t, v.Proposal.Votes)
}

func TestViewRevealsRolesAtEnd(t *testing.T) {
	tb := merlinAssassinTable(t)
	tb.playRound([]string{"ann", "dan"}, "ann")
	tb.playRound([]string{"cat", "dan", "eve"}, "cat")
	tb.playRound([]string{"ann", "cat"}, "cat")

	v, err := tb.game.View(tb.secrets["eve"])
	require.NoError(t, err)
	require.NotNil(t, v.Outcome)
	assert.Equal(t, FactionEvil, v.Outcome.Winner)
	for _, p := range v.Players {
		assert.NotEqual(t, RoleUnassigned, p.Role)
	}
}
