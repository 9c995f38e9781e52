package ws

const (
	// client - server
	MsgReady       = "ready"
	MsgChoose      = "choose"
	MsgRemove      = "remove"
	MsgSubmitTeam  = "submit_team"
	MsgPropose     = "propose"
	MsgVote        = "vote"
	MsgMission     = "mission"
	MsgAssassinate = "assassinate"
	MsgPing        = "ping"

	// server - client
	MsgView   = "view"
	MsgClosed = "closed"
	MsgPong   = "pong"
	MsgError  = "error"
)
