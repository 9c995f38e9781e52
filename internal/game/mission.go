package game

import (
	"fmt"
	"strconv"
)

const (
	MinPlayers   = 5
	MaxPlayers   = 10
	NumRounds    = 5
	MaxProposals = 5
	WinsNeeded   = 3
)

// teamSizes[n-MinPlayers][round-1]
var teamSizes = [MaxPlayers - MinPlayers + 1][NumRounds]int{
	{2, 3, 2, 3, 3}, // 5
	{2, 3, 4, 3, 4}, // 6
	{2, 3, 3, 4, 4}, // 7
	{3, 4, 4, 5, 5}, // 8
	{3, 4, 4, 5, 5}, // 9
	{3, 4, 4, 5, 5}, // 10
}

func ValidPlayerCount(n int) bool {
	return n >= MinPlayers && n <= MaxPlayers
}

func mustDomain(n, round int) {
	if !ValidPlayerCount(n) || round < 1 || round > NumRounds {
		panic(fmt.Sprintf("game: mission table has no entry for %d players, round %d", n, round))
	}
}

// TeamSize is the number of players sent on the mission of the given round.
// It panics outside 5..10 players and rounds 1..5.
func TeamSize(n, round int) int {
	mustDomain(n, round)
	return teamSizes[n-MinPlayers][round-1]
}

// RequiredFails is the number of fail cards needed to fail the mission.
func RequiredFails(n, round int) int {
	mustDomain(n, round)
	if n >= 7 && round == 4 {
		return 2
	}
	return 1
}

// MissionSizeString renders a round's team size, marking rounds that need
// two fails with an asterisk.
func MissionSizeString(n, round int) string {
	s := strconv.Itoa(TeamSize(n, round))
	if RequiredFails(n, round) > 1 {
		s += "*"
	}
	return s
}
