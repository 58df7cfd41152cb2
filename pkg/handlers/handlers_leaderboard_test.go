package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/arnavshah/weekly-score-api/pkg/auth"
	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/arnavshah/weekly-score-api/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedLeaderboard saves weeks scoring 110 for bea and 5 for ana; root has none
func seedLeaderboard(t *testing.T, s *testServer) string {
	t.Helper()
	_, admin := s.user("root", database.RoleAdmin)
	_, ana := s.user("ana", database.RoleMember)
	_, bea := s.user("bea", database.RoleMember)

	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/weeks/2026-10-19", ana, gin.H{
		"planned": []gin.H{planned("a", 300, 300, true)},
	}).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/weeks/2026-10-19", bea, gin.H{
		"planned": []gin.H{planned("b", 1000, 800, true)},
	}).Code)
	return admin
}

func TestLeaderboard(t *testing.T) {
	s := newTestServer(t)
	admin := seedLeaderboard(t, s)

	w := s.do(http.MethodGet, "/api/leaderboard?week=2026-10-23", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var board models.LeaderboardResponse
	decode(t, w, &board)
	assert.Equal(t, "2026-10-19", board.WeekStart)
	require.Len(t, board.Entries, 3)

	assert.Equal(t, "bea", board.Entries[0].Username)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.InDelta(t, 110.0, board.Entries[0].Score, 1e-9)
	assert.True(t, board.Entries[0].HasWeek)

	assert.Equal(t, "ana", board.Entries[1].Username)
	assert.InDelta(t, 5.0, board.Entries[1].Score, 1e-9)

	assert.Equal(t, "root", board.Entries[2].Username)
	assert.Equal(t, 3, board.Entries[2].Rank)
	assert.Zero(t, board.Entries[2].Score)
	assert.False(t, board.Entries[2].HasWeek)

	// another week: nobody saved anything, ties break by username
	w = s.do(http.MethodGet, "/api/leaderboard?week=2026-10-12", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &board)
	require.Len(t, board.Entries, 3)
	assert.Equal(t, []string{"ana", "bea", "root"}, []string{
		board.Entries[0].Username, board.Entries[1].Username, board.Entries[2].Username,
	})

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/leaderboard?week=yesterday", admin, nil).Code)
}

func (s *testServer) generateKey(admin string, body gin.H) (uint, string) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/admin/keys", admin, body)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		ID  uint   `json:"id"`
		Key string `json:"key"`
	}
	decode(s.t, w, &resp)
	return resp.ID, resp.Key
}

func TestIntegrationKeys(t *testing.T) {
	s := newTestServer(t)
	admin := seedLeaderboard(t, s)

	id, key := s.generateKey(admin, gin.H{"name": "dashboard", "rate_limit": 2})
	assert.Equal(t, auth.GenerateHMACKey(s.h.Config.APIMasterSecret, "dashboard"), key)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/admin/keys", admin, gin.H{"name": "dashboard"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/admin/keys", admin, gin.H{"name": "a.b"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/admin/keys", admin, gin.H{}).Code)

	w := s.do(http.MethodGet, "/integrations/leaderboard?week=2026-10-19", key, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var board models.LeaderboardResponse
	decode(t, w, &board)
	assert.Len(t, board.Entries, 3)

	w = s.do(http.MethodGet, "/integrations/usage", key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var usage struct {
		KeyName   string `json:"key_name"`
		RateLimit int    `json:"rate_limit"`
		Totals    struct {
			Requests    int64 `json:"requests"`
			WeeksScored int64 `json:"weeks_scored"`
		} `json:"totals"`
	}
	decode(t, w, &usage)
	assert.Equal(t, "dashboard", usage.KeyName)
	assert.Equal(t, 2, usage.RateLimit)
	assert.EqualValues(t, 1, usage.Totals.Requests)
	assert.EqualValues(t, 2, usage.Totals.WeeksScored)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/integrations/leaderboard", key, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/integrations/leaderboard", key, nil).Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/admin/keys/%d", id), admin, gin.H{"rate_limit": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/integrations/leaderboard", key, nil).Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/admin/usage/%d", id), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Usage []database.APIUsage `json:"usage"`
	}
	decode(t, w, &history)
	require.Len(t, history.Usage, 1)
	assert.Equal(t, 3, history.Usage[0].RequestCount)

	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, fmt.Sprintf("/admin/keys/%d", id), admin, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/integrations/leaderboard", key, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, fmt.Sprintf("/admin/keys/%d", id), admin, nil).Code)

	// generating the same name again reactivates the key
	again, sameKey := s.generateKey(admin, gin.H{"name": "dashboard"})
	assert.Equal(t, id, again)
	assert.Equal(t, key, sameKey)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/integrations/usage", key, nil).Code)

	var keys struct {
		Keys []database.APIKey `json:"keys"`
	}
	decode(t, s.do(http.MethodGet, "/admin/keys", admin, nil), &keys)
	require.Len(t, keys.Keys, 1)
	assert.Nil(t, keys.Keys[0].RevokedAt)
	assert.Equal(t, defaultRateLimit, keys.Keys[0].RateLimit)
	assert.NotContains(t, keys.Keys[0].KeyPreview, key[4:len(key)-4])
}

func TestAPIKeyMiddleware(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/integrations/usage", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/integrations/usage", "no-dot", nil).Code)

	forged := auth.GenerateHMACKey("some-other-secret", "ops")
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/integrations/usage", forged, nil).Code)

	// keys minted offline register themselves on first use
	offline := auth.GenerateHMACKey(s.h.Config.APIMasterSecret, "ops")
	w := s.do(http.MethodGet, "/integrations/usage", offline, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored database.APIKey
	require.NoError(t, s.h.DB.Where(&database.APIKey{Key: offline}).First(&stored).Error)
	assert.Equal(t, "ops", stored.Name)
	assert.NotNil(t, stored.LastUsed)

	// user tokens are not integration keys
	_, token := s.user("ana", database.RoleMember)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/integrations/usage", token, nil).Code)
}
