package authz

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/stanstork/condo-notify/internal/models"
	"github.com/stanstork/condo-notify/internal/upstream"
)

// Authenticator verifies HS256 bearer tokens and resolves them to an Actor.
type Authenticator struct {
	secret []byte
	logger zerolog.Logger
}

func NewAuthenticator(secret string, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		logger: logger.With().Str("component", "authz").Logger(),
	}
}

// Middleware rejects requests without a valid token. The raw token is kept on
// the context so calls to the condominium service carry it.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeAuthError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeAuthError(w, http.StatusUnauthorized, "Invalid authorization format")
			return
		}
		tokenString := strings.TrimSpace(parts[1])

		actor, err := a.Parse(tokenString)
		if err != nil {
			a.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected bearer token")
			writeAuthError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := WithActor(r.Context(), actor)
		ctx = upstream.WithBearerToken(ctx, tokenString)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Parse validates tokenString and extracts the actor claims.
func (a *Authenticator) Parse(tokenString string) (models.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return models.Actor{}, errors.Wrap(err, "parse token")
	}
	if !token.Valid {
		return models.Actor{}, errors.New("token is not valid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, errors.New("unexpected claims type")
	}
	return actorFromClaims(claims)
}

func actorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	userID, err := subjectID(claims["sub"])
	if err != nil {
		return models.Actor{}, err
	}
	rawRole, _ := claims["role"].(string)
	role := models.NormalizeRole(rawRole)
	if !models.IsValidRole(role) {
		return models.Actor{}, errors.Errorf("invalid role claim %q", rawRole)
	}
	name, _ := claims["name"].(string)
	return models.Actor{UserID: userID, Name: strings.TrimSpace(name), Role: role}, nil
}

// subjectID accepts the user id as a JSON number or a numeric string.
func subjectID(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case float64:
		if v <= 0 || v != float64(int(v)) {
			return 0, errors.Errorf("invalid subject %v", v)
		}
		return int(v), nil
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || id <= 0 {
			return 0, errors.Errorf("invalid subject %q", v)
		}
		return id, nil
	default:
		return 0, errors.New("missing subject claim")
	}
}

// IssueToken signs a token for actor. notifctl and tests use it; production
// tokens come from the condominium login.
func IssueToken(secret string, actor models.Actor, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  strconv.Itoa(actor.UserID),
		"role": string(actor.Role),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	if actor.Name != "" {
		claims["name"] = actor.Name
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// RequireStaff allows only funcionario and sindico actors through.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromRequest(r)
		if !ok || !actor.IsStaff() {
			writeAuthError(w, http.StatusForbidden, "Acesso restrito à administração")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"mensagem": message})
}
