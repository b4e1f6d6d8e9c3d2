package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	sharedauth "notes-backend/internal/shared/auth"
	"notes-backend/internal/users"
)

func TestStateStoreConsumesOnce(t *testing.T) {
	store := newStateStore()
	store.put("s1", time.Now().Add(time.Minute))
	store.put("expired", time.Now().Add(-time.Second))

	assert.True(t, store.consume("s1"))
	assert.False(t, store.consume("s1"))
	assert.False(t, store.consume("expired"))
	assert.False(t, store.consume("unknown"))
}

func TestStateStorePrunesExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newStateStore()
	store.now = func() time.Time { return now }

	store.put("old", now.Add(time.Minute))
	now = now.Add(2 * time.Minute)
	store.put("new", now.Add(time.Minute))

	assert.Equal(t, 1, store.size())
	assert.True(t, store.consume("new"))
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("http://localhost:5173/auth?next=notes", "tok")
	require.NoError(t, err)
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "tok", u.Query().Get("token"))
	assert.Equal(t, "notes", u.Query().Get("next"))

	_, err = appendToken("", "tok")
	assert.Error(t, err)
}

func TestStartRequiresConfiguration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewGoogleService("", "", "", "", nil).RegisterRoutes(r.Group("/api/v1"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStartRedirectsWithState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := NewGoogleService("id", "secret", "http://localhost:8080/api/v1/auth/google/callback", "http://ui", nil)
	svc.RegisterRoutes(r.Group("/api/v1"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	assert.True(t, svc.stateStore.consume(state))
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewGoogleService("id", "secret", "http://cb", "http://ui", nil).RegisterRoutes(r.Group("/api/v1"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=nope&code=c", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type recordingUserStore struct {
	got []users.User
}

func (r *recordingUserStore) UpsertFromAuth(_ context.Context, u users.User) error {
	r.got = append(r.got, u)
	return nil
}

func TestCallbackIssuesTokenAndStoresProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "callback-secret")

	google := http.NewServeMux()
	google.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"access_token": "at", "token_type": "Bearer", "expires_in": 3600})
	})
	google.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "42",
			"email":       "ada@example.com",
			"name":        "Ada Lovelace",
			"given_name":  "Ada",
			"family_name": "Lovelace",
		})
	})
	srv := httptest.NewServer(google)
	defer srv.Close()

	store := &recordingUserStore{}
	svc := NewGoogleService("id", "secret", "http://cb", "http://ui/done", store)
	svc.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	svc.userInfoURL = srv.URL + "/userinfo"
	svc.stateStore.put("st", time.Now().Add(time.Minute))

	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=st&code=c", nil))

	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "ui", loc.Host)
	claims, err := sharedauth.VerifyJWT(loc.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "google:42", claims.Sub)
	assert.Equal(t, "ada@example.com", claims.Email)

	require.Len(t, store.got, 1)
	assert.Equal(t, "Ada Lovelace", store.got[0].DisplayName())
}
