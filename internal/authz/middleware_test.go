package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/condo-notify/internal/models"
)

const secret = "test-secret"

func actorEcho(t *testing.T, seen *models.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromRequest(r)
		require.True(t, ok)
		*seen = actor
		w.WriteHeader(http.StatusNoContent)
	})
}

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/notificacoes", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareAcceptsIssuedToken(t *testing.T) {
	token, err := IssueToken(secret, models.Actor{UserID: 42, Name: "Ana", Role: models.RoleResident}, time.Hour)
	require.NoError(t, err)

	var seen models.Actor
	h := NewAuthenticator(secret, zerolog.Nop()).Middleware(actorEcho(t, &seen))
	rec := serve(h, "Bearer "+token)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.Actor{UserID: 42, Name: "Ana", Role: models.RoleResident}, seen)
}

func TestMiddlewareAcceptsNumericSubjectAndMixedCaseRole(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": 7, "role": " Sindico "})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	var seen models.Actor
	h := NewAuthenticator(secret, zerolog.Nop()).Middleware(actorEcho(t, &seen))
	rec := serve(h, "bearer "+signed)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 7, seen.UserID)
	assert.True(t, seen.IsStaff())
}

func TestMiddlewareRejectsBadTokens(t *testing.T) {
	expired, err := IssueToken(secret, models.Actor{UserID: 1, Role: models.RoleStaff}, -time.Minute)
	require.NoError(t, err)
	wrongKey, err := IssueToken("other", models.Actor{UserID: 1, Role: models.RoleStaff}, time.Hour)
	require.NoError(t, err)
	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte(secret))
	require.NoError(t, err)
	badSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "abc", "role": "morador"}).SignedString([]byte(secret))
	require.NoError(t, err)

	h := NewAuthenticator(secret, zerolog.Nop()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for name, header := range map[string]string{
		"missing":   "",
		"format":    "Token abc",
		"expired":   "Bearer " + expired,
		"wrong key": "Bearer " + wrongKey,
		"no role":   "Bearer " + noRole,
		"bad sub":   "Bearer " + badSub,
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "mensagem")
		})
	}
}

func TestRequireStaff(t *testing.T) {
	h := RequireStaff(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	run := func(actor models.Actor) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithActor(context.Background(), actor))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run(models.Actor{UserID: 1, Role: models.RoleStaff}))
	assert.Equal(t, http.StatusOK, run(models.Actor{UserID: 1, Role: models.RoleManager}))
	assert.Equal(t, http.StatusForbidden, run(models.Actor{UserID: 1, Role: models.RoleResident}))
	assert.Equal(t, http.StatusForbidden, run(models.Actor{}))
}
