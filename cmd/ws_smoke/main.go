package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"avalon_webapp/internal/game"
	"avalon_webapp/internal/service"
	"avalon_webapp/internal/ws"
)

// player is one scripted seat: REST for setup, the socket for actions.
type player struct {
	service.JoinResult
	conn  *websocket.Conn
	views atomic.Int64
}

var (
	baseURL = flag.String("base", "http://127.0.0.1:8080", "server base URL")
	timeout = flag.Duration("timeout", 30*time.Second, "give up after this long")
)

func main() {
	flag.Parse()
	deadline := time.Now().Add(*timeout)

	names := []string{"smokeA", "smokeB", "smokeC", "smokeD", "smokeE"}
	players := make([]*player, 0, len(names))

	var first service.JoinResult
	mustPost("/api/v1/games", "", map[string]any{"name": names[0]}, &first)
	players = append(players, &player{JoinResult: first})
	for _, n := range names[1:] {
		var res service.JoinResult
		mustPost("/api/v1/games/"+first.AccessCode+"/join", "", map[string]any{"name": n}, &res)
		players = append(players, &player{JoinResult: res})
	}
	log.Printf("game %s seated %d players", first.AccessCode, len(players))

	for _, p := range players {
		p.connect()
		defer p.conn.Close()
	}

	mustPost("/api/v1/games/"+first.AccessCode+"/start", first.Session,
		map[string]any{"roles": []string{"merlin", "assassin"}}, nil)
	for _, p := range players {
		p.send(ws.MsgReady, nil)
	}

	for time.Now().Before(deadline) {
		views := make(map[string]game.GameView, len(players))
		for _, p := range players {
			views[p.PlayerID] = p.view()
		}
		v := views[first.PlayerID]

		switch v.Phase {
		case game.PhaseRoleReveal:
		case game.PhaseTeamBuilding:
			proposer := byID(players, v.Proposal.Proposer)
			team := make([]string, 0, v.TeamSize)
			for _, p := range players[:v.TeamSize] {
				team = append(team, p.PlayerID)
			}
			proposer.send(ws.MsgPropose, ws.ProposePayload{
				SlotPayload: ws.SlotPayload{Round: v.RoundNum, Proposal: v.ProposalNum},
				Members:     team,
			})
		case game.PhaseVoting:
			for _, p := range players {
				p.send(ws.MsgVote, ws.VotePayload{
					SlotPayload: ws.SlotPayload{Round: v.RoundNum, Proposal: v.ProposalNum},
					Approve:     true,
				})
			}
		case game.PhaseMission:
			if v.Mission == nil {
				break
			}
			for _, id := range v.Mission.Team {
				p := byID(players, id)
				// spies sabotage; the rules refuse a fail card from good players
				success := views[id].You.Faction != game.FactionEvil
				p.send(ws.MsgMission, ws.MissionPayload{Round: v.RoundNum, Success: success})
			}
		case game.PhaseAssassination:
			for _, p := range players {
				if views[p.PlayerID].You.Role != game.RoleAssassin {
					continue
				}
				target := ""
				for _, other := range players {
					if views[other.PlayerID].You.Faction == game.FactionGood {
						target = other.PlayerID
						break
					}
				}
				p.send(ws.MsgAssassinate, ws.AssassinatePayload{Target: target})
			}
		case game.PhaseEnd:
			for _, p := range players {
				log.Printf("%s saw %d view pushes", p.Name, p.views.Load())
			}
			log.Printf("game over: %s wins by %s", v.Outcome.Winner, v.Outcome.Reason)
			log.Println("smoke test finished")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	log.Fatal("smoke test timed out")
}

func byID(players []*player, id string) *player {
	for _, p := range players {
		if p.PlayerID == id {
			return p
		}
	}
	log.Fatalf("unknown player %s", id)
	return nil
}

func (p *player) connect() {
	u := "ws" + strings.TrimPrefix(*baseURL, "http") +
		"/api/v1/games/" + p.AccessCode + "/ws?token=" + p.Session
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", p.Name, err)
	}
	p.conn = conn

	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env ws.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			switch env.Type {
			case ws.MsgView:
				p.views.Add(1)
			case ws.MsgError:
				log.Printf("%s got error: %s", p.Name, env.Payload)
			}
		}
	}()
}

func (p *player) send(msgType string, payload any) {
	env := ws.Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Fatalf("encode %s: %v", msgType, err)
		}
		env.Payload = raw
	}
	if err := p.conn.WriteJSON(env); err != nil {
		log.Fatalf("write %s for %s: %v", msgType, p.Name, err)
	}
}

func (p *player) view() game.GameView {
	req, _ := http.NewRequest(http.MethodGet, *baseURL+"/api/v1/games/"+p.AccessCode, nil)
	req.Header.Set("Authorization", "Bearer "+p.Session)
	var v game.GameView
	do(req, &v)
	return v
}

func mustPost(path, session string, body any, out any) {
	b, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("encode body: %v", err)
	}
	req, _ := http.NewRequest(http.MethodPost, *baseURL+path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set("Authorization", "Bearer "+session)
	}
	do(req, out)
}

func do(req *http.Request, out any) {
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var e map[string]any
		_ = json.NewDecoder(res.Body).Decode(&e)
		log.Fatalf("%s %s: %d %v", req.Method, req.URL.Path, res.StatusCode, e)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("decode %s: %v", req.URL.Path, err)
		}
	}
}
