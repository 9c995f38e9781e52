package ws

import "encoding/json"

// Envelope frames every message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// client → server
type SlotPayload struct {
	Round    int `json:"round"`
	Proposal int `json:"proposal"`
}

type MemberPayload struct {
	SlotPayload
	PlayerID string `json:"player_id"`
}

type ProposePayload struct {
	SlotPayload
	Members []string `json:"members"`
}

type VotePayload struct {
	SlotPayload
	Approve bool `json:"approve"`
}

type MissionPayload struct {
	Round   int  `json:"round"`
	Success bool `json:"success"`
}

type AssassinatePayload struct {
	Target string `json:"target"`
}

// server → client
type ErrorPayload struct {
	Message string `json:"message"`
}

func encode(msgType string, payload any) []byte {
	env := Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			env = Envelope{Type: MsgError}
			raw, _ = json.Marshal(ErrorPayload{Message: "internal error"})
		}
		env.Payload = raw
	}
	b, _ := json.Marshal(env)
	return b
}
