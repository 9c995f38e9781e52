package ws

import (
	"context"
	"encoding/json"
	"time"

	"avalon_webapp/internal/game"
	"avalon_webapp/internal/logger"
)

const actionTimeout = 5 * time.Second

// handle runs one inbound action. Successful actions answer through the
// view broadcast that follows them; only failures get a direct reply.
func (c *Client) handle(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.reply(MsgError, ErrorPayload{Message: "invalid message"})
		return
	}

	if env.Type == MsgPing {
		c.reply(MsgPong, nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	if err := c.dispatch(ctx, env); err != nil {
		c.reply(MsgError, ErrorPayload{Message: errorMessage(err)})
	}
}

func (c *Client) dispatch(ctx context.Context, env Envelope) error {
	svc := c.Hub.games
	switch env.Type {
	case MsgReady:
		_, err := svc.MarkReady(ctx, c.Code, c.Secret)
		return err

	case MsgChoose, MsgRemove:
		var p MemberPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		if env.Type == MsgChoose {
			return svc.ChooseMember(ctx, c.Code, c.Secret, p.Round, p.Proposal, p.PlayerID)
		}
		return svc.RemoveMember(ctx, c.Code, c.Secret, p.Round, p.Proposal, p.PlayerID)

	case MsgSubmitTeam:
		var p SlotPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		return svc.SubmitTeam(ctx, c.Code, c.Secret, p.Round, p.Proposal)

	case MsgPropose:
		var p ProposePayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		return svc.ProposeTeam(ctx, c.Code, c.Secret, p.Round, p.Proposal, p.Members)

	case MsgVote:
		var p VotePayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		_, err := svc.CastVote(ctx, c.Code, c.Secret, p.Round, p.Proposal, p.Approve)
		return err

	case MsgMission:
		var p MissionPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		_, err := svc.SubmitMission(ctx, c.Code, c.Secret, p.Round, p.Success)
		return err

	case MsgAssassinate:
		var p AssassinatePayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		_, err := svc.Assassinate(ctx, c.Code, c.Secret, p.Target)
		return err

	default:
		return errUnknownType
	}
}

type payloadError struct{ msg string }

func (e payloadError) Error() string { return e.msg }

var errUnknownType = payloadError{"unknown message type"}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return payloadError{"missing payload"}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return payloadError{"invalid payload"}
	}
	return nil
}

func errorMessage(err error) string {
	if pe, ok := err.(payloadError); ok {
		return pe.msg
	}
	switch {
	case game.IsNotFound(err):
		return "not found"
	case game.IsValidation(err):
		return err.Error()
	default:
		logger.Error("ws action failed", "error", err)
		return "internal error"
	}
}
