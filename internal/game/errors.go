package game

import "errors"

var (
	ErrNotFound           = errors.New("game not found")
	ErrUnauthorized       = errors.New("unknown player secret")
	ErrInvalidName        = errors.New("invalid player name")
	ErrNameTaken          = errors.New("name already taken")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrTooFewPlayers      = errors.New("too few players")
	ErrTooManyPlayers     = errors.New("too many players")
	ErrRoleConfiguration  = errors.New("invalid role configuration")
	ErrWrongPhase         = errors.New("action not allowed in current phase")
	ErrStaleAction        = errors.New("round or proposal is no longer current")
	ErrNotYourTurn        = errors.New("not your turn to propose")
	ErrWrongTeamSize      = errors.New("wrong team size")
	ErrDuplicateMember    = errors.New("player already on team")
	ErrUnknownPlayer      = errors.New("no such player in game")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrNotOnMission       = errors.New("not on mission team")
	ErrAlreadySubmitted   = errors.New("mission result already submitted")
	ErrGoodMustSucceed    = errors.New("good players must submit success")
	ErrNotAssassin        = errors.New("only the assassin may assassinate")
	ErrInvalidTarget      = errors.New("invalid assassination target")
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique access code")
)

var validationErrors = []error{
	ErrInvalidName, ErrNameTaken, ErrGameAlreadyStarted, ErrTooFewPlayers, ErrTooManyPlayers,
	ErrRoleConfiguration, ErrWrongPhase, ErrStaleAction, ErrNotYourTurn, ErrWrongTeamSize,
	ErrDuplicateMember, ErrUnknownPlayer, ErrAlreadyVoted, ErrNotOnMission, ErrAlreadySubmitted,
	ErrGoodMustSucceed, ErrNotAssassin, ErrInvalidTarget,
}

// IsNotFound reports whether err means the game or player is unknown.
// Both cases are reported identically to callers.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized)
}

// IsValidation reports whether err is a rejected action that left state unchanged.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
