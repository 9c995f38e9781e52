package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveVote(t *testing.T) {
	cases := []struct {
		approves, rejects, proposal int
		approved, forced            bool
	}{
		{3, 2, 1, true, false},
		{2, 3, 1, false, false},
		{3, 3, 2, false, false}, // tie rejects
		{5, 0, 4, true, false},
		{0, 5, 5, true, true},
		{3, 3, 5, true, true},
		{4, 1, 5, true, false},
	}
	for _, tc := range cases {
		approved, forced := ResolveVote(tc.approves, tc.rejects, tc.proposal)
		assert.Equal(t, tc.approved, approved, "%+v", tc)
		assert.Equal(t, tc.forced, forced, "%+v", tc)
	}
}

func TestResolveMission(t *testing.T) {
	assert.Equal(t, ResultSuccess, ResolveMission(0, 1))
	assert.Equal(t, ResultFail, ResolveMission(1, 1))
	assert.Equal(t, ResultSuccess, ResolveMission(1, 2))
	assert.Equal(t, ResultFail, ResolveMission(2, 2))
	assert.Equal(t, ResultFail, ResolveMission(3, 2))
}

func TestWinnerString(t *testing.T) {
	assert.Equal(t, "Resistance", ResultSuccess.WinnerString())
	assert.Equal(t, "Spies", ResultFail.WinnerString())
	assert.Equal(t, "", ResultUnset.WinnerString())
}
