package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"avalon_webapp/internal/game"
	"avalon_webapp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth map[string]game.Credentials

func (f fakeAuth) Authenticate(code, secret string) (game.Credentials, error) {
	creds, ok := f[code+"/"+secret]
	if !ok {
		return game.Credentials{}, game.ErrUnauthorized
	}
	return creds, nil
}

func withoutRedis(t *testing.T) {
	saved := redisClient
	redisClient = nil
	t.Cleanup(func() { redisClient = saved })
}

func sessionRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/games/:code", Session(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"player_id": c.GetString(KeyPlayerID)})
	})
	return r
}

func TestSession(t *testing.T) {
	service.SetJWTSecret("middleware-test")
	auth := fakeAuth{"abcdef/s1": {AccessCode: "abcdef", PlayerID: "p1", Secret: "s1"}}
	r := sessionRouter(auth)

	valid, err := service.GenerateSessionJWT("abcdef", "s1")
	require.NoError(t, err)
	stale, err := service.GenerateSessionJWT("abcdef", "gone")
	require.NoError(t, err)

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"bearer", "/games/abcdef", "Bearer " + valid, http.StatusOK},
		{"query token", "/games/abcdef?token=" + valid, "", http.StatusOK},
		{"code is case-insensitive", "/games/ABCDEF", "Bearer " + valid, http.StatusOK},
		{"missing", "/games/abcdef", "", http.StatusUnauthorized},
		{"other game", "/games/zzzzzz", "Bearer " + valid, http.StatusNotFound},
		{"secret no longer seated", "/games/abcdef", "Bearer " + stale, http.StatusNotFound},
		{"garbage", "/games/abcdef", "Bearer nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestSimpleRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/test", SimpleRateLimit(2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestSimpleRateLimitHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/test", SimpleRateLimit(3, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Remaining"))
}

func TestLimiterSetRefillsOverWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	set := newLimiterSet(2, time.Minute)
	set.now = func() time.Time { return now }

	ok, left := set.allow("ip")
	assert.True(t, ok)
	assert.Equal(t, 1, left)
	ok, _ = set.allow("ip")
	assert.True(t, ok)
	ok, left = set.allow("ip")
	assert.False(t, ok)
	assert.Zero(t, left)

	// one token comes back every window/limit
	now = now.Add(30 * time.Second)
	ok, _ = set.allow("ip")
	assert.True(t, ok)
	ok, _ = set.allow("ip")
	assert.False(t, ok)

	ok, _ = set.allow("other")
	assert.True(t, ok, "buckets are per key")
}

func TestLimiterSetSweepsIdleKeys(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	set := newLimiterSet(1, time.Second)
	set.now = func() time.Time { return now }

	for i := 0; i < 1024; i++ {
		set.allow(strconv.Itoa(i))
	}
	require.Len(t, set.clients, 1024)

	now = now.Add(2 * time.Second)
	set.allow("fresh")
	assert.Len(t, set.clients, 1)
	assert.Contains(t, set.clients, "fresh")
}

func TestLimiterSetZeroLimitBlocks(t *testing.T) {
	ok, _ := newLimiterSet(0, time.Minute).allow("ip")
	assert.False(t, ok)
}

func TestPlayerRateLimitInMemory(t *testing.T) {
	withoutRedis(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/act/:player", func(c *gin.Context) {
		c.Set(KeyPlayerID, c.Param("player"))
	}, PlayerRateLimit(1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(player string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/act/"+player, nil))
		return w.Code
	}
	assert.Equal(t, http.StatusOK, do("p1"))
	assert.Equal(t, http.StatusTooManyRequests, do("p1"))
	assert.Equal(t, http.StatusOK, do("p2"), "limits are per player")
}

func TestPlayerRateLimitRequiresSession(t *testing.T) {
	withoutRedis(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/act", PlayerRateLimit(5, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/act", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		key, sent string
		want      int
	}{
		{"k", "k", http.StatusOK},
		{"k", "x", http.StatusNotFound},
		{"", "", http.StatusNotFound},
	} {
		r := gin.New()
		r.POST("/admin", AdminKey(tc.key), func(c *gin.Context) { c.Status(http.StatusOK) })
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		req.Header.Set("X-Admin-Key", tc.sent)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code)
	}
}
