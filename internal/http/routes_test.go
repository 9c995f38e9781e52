package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"avalon_webapp/internal/config"
	"avalon_webapp/internal/game"
	apphttp "avalon_webapp/internal/http"
	"avalon_webapp/internal/service"
	"avalon_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	t      *testing.T
	router *gin.Engine
	svc    *service.GameService
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service.SetJWTSecret("routes-test")

	// identity shuffle: the i-th player to join gets turn order i
	dir := game.NewDirectory(game.Options{Shuffler: game.ShufflerFunc(func(int, func(i, j int)) {})})
	svc := service.NewGameService(dir, service.Stores{}, 0)
	hub := ws.NewHub(svc)
	svc.SetNotifier(hub)

	cfg := &config.Config{
		PublicBaseURL:        "https://avalon.example",
		AdminKey:             "admin-key",
		APIRateLimit:         1000,
		APIRateWindowSeconds: 60,
		ActionRateLimit:      1000,
		ActionRateWindowSecs: 60,
	}
	return &server{
		t:      t,
		router: apphttp.NewRouter(apphttp.Deps{Games: svc, Hub: hub, Config: cfg, Version: "test"}),
		svc:    svc,
	}
}

func (s *server) do(method, path, token string, body any, header ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) join(code, name string) service.JoinResult {
	s.t.Helper()
	var w *httptest.ResponseRecorder
	if code == "" {
		w = s.do(http.MethodPost, "/api/v1/games", "", gin.H{"name": name})
		require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	} else {
		w = s.do(http.MethodPost, "/api/v1/games/"+code+"/join", "", gin.H{"name": name})
		require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	}
	var res service.JoinResult
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func (s *server) view(p service.JoinResult) game.GameView {
	s.t.Helper()
	w := s.do(http.MethodGet, "/api/v1/games/"+p.AccessCode, p.Session, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var v game.GameView
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestCreateJoinAndView(t *testing.T) {
	s := newServer(t)
	ann := s.join("", "ann")
	bob := s.join(ann.AccessCode, "bob")

	v := s.view(bob)
	assert.Equal(t, game.PhaseLobby, v.Phase)
	assert.Equal(t, 2, v.PlayerCount)
	assert.Equal(t, "bob", v.You.Name)
}

func TestErrorMapping(t *testing.T) {
	s := newServer(t)
	ann := s.join("", "ann")
	path := "/api/v1/games/" + ann.AccessCode

	other := s.join("", "zed")

	cases := []struct {
		name   string
		w      *httptest.ResponseRecorder
		status int
	}{
		{"no token", s.do(http.MethodGet, path, "", nil), http.StatusUnauthorized},
		{"token for another game", s.do(http.MethodGet, path, other.Session, nil), http.StatusNotFound},
		{"unknown game on join", s.do(http.MethodPost, "/api/v1/games/qqqqqq/join", "", gin.H{"name": "x"}), http.StatusNotFound},
		{"name taken", s.do(http.MethodPost, path+"/join", "", gin.H{"name": "ann"}), http.StatusConflict},
		{"missing name", s.do(http.MethodPost, "/api/v1/games", "", gin.H{}), http.StatusBadRequest},
		{"too few players", s.do(http.MethodPost, path+"/start", ann.Session, gin.H{"roles": []string{}}), http.StatusBadRequest},
		{"unknown role", s.do(http.MethodPost, path+"/start", ann.Session, gin.H{"roles": []string{"jester"}}), http.StatusBadRequest},
		{"ready in lobby", s.do(http.MethodPost, path+"/ready", ann.Session, nil), http.StatusConflict},
		{"vote without approve", s.do(http.MethodPost, path+"/vote", ann.Session, gin.H{"round": 1, "proposal": 1}), http.StatusBadRequest},
		{"admin without key", s.do(http.MethodPost, "/api/v1/admin/games/"+ann.AccessCode+"/force-resolve", "", nil), http.StatusNotFound},
		{"admin in lobby", s.do(http.MethodPost, "/api/v1/admin/games/"+ann.AccessCode+"/force-resolve", "", nil, "X-Admin-Key", "admin-key"), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, tc.w.Code, tc.w.Body.String())
		})
	}

	var body map[string]string
	require.NoError(t, json.Unmarshal(cases[1].w.Body.Bytes(), &body))
	assert.Equal(t, "not found", body["error"])
}

func TestPlayRoundOverHTTP(t *testing.T) {
	s := newServer(t)
	names := []string{"ann", "bob", "cat", "dan", "eve"}
	players := []service.JoinResult{s.join("", names[0])}
	for _, n := range names[1:] {
		players = append(players, s.join(players[0].AccessCode, n))
	}
	code := players[0].AccessCode
	path := "/api/v1/games/" + code

	w := s.do(http.MethodPost, path+"/start", players[0].Session, gin.H{"roles": []string{"merlin", "assassin"}, "display_history": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, p := range players {
		w := s.do(http.MethodPost, path+"/ready", p.Session, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	v := s.view(players[0])
	require.Equal(t, game.PhaseTeamBuilding, v.Phase)
	require.Equal(t, players[0].PlayerID, v.Proposal.Proposer)

	slot := gin.H{"round": 1, "proposal": 1}
	for _, p := range players[1:3] {
		w := s.do(http.MethodPost, path+"/choose", players[0].Session, gin.H{"round": 1, "proposal": 1, "player_id": p.PlayerID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, path+"/submit-team", players[1].Session, slot)
	assert.Equal(t, http.StatusConflict, w.Code, "only the proposer submits")
	w = s.do(http.MethodPost, path+"/submit-team", players[0].Session, slot)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out game.VoteOutcome
	for _, p := range players {
		w := s.do(http.MethodPost, path+"/vote", p.Session, gin.H{"round": 1, "proposal": 1, "approve": true})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	assert.True(t, out.Resolved)
	assert.True(t, out.Approved)

	// bob and cat are on the mission; force the rest
	w = s.do(http.MethodPost, path+"/mission", players[1].Session, gin.H{"round": 1, "success": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPost, path+"/mission", players[3].Session, gin.H{"round": 1, "success": true})
	assert.Equal(t, http.StatusBadRequest, w.Code, "dan is not on the team")

	w = s.do(http.MethodPost, "/api/v1/admin/games/"+code+"/force-resolve", "", nil, "X-Admin-Key", "admin-key")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var forced game.ForcedOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forced))
	require.NotNil(t, forced.Mission)
	assert.Equal(t, game.ResultSuccess, forced.Mission.Result)

	v = s.view(players[0])
	assert.Equal(t, 2, v.RoundNum)
	assert.Equal(t, "Resistance", v.Rounds[0].Winner)
}

func TestLeaveClosesLastSession(t *testing.T) {
	s := newServer(t)
	ann := s.join("", "ann")

	w := s.do(http.MethodPost, "/api/v1/games/"+ann.AccessCode+"/leave", ann.Session, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/games/"+ann.AccessCode, ann.Session, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, s.svc.ActiveGames())
}

func TestJoinQR(t *testing.T) {
	s := newServer(t)
	ann := s.join("", "ann")

	w := s.do(http.MethodGet, "/api/v1/games/"+ann.AccessCode+"/qr", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = s.do(http.MethodGet, "/api/v1/games/nosuch/qr", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthWithoutDatabase(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"disabled"`)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "avalon_games_created_total")
}
