// Package upstream talks to the condominium REST service that owns
// notifications. It only speaks the service's contract; rules live in the
// lifecycle and query packages.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/stanstork/condo-notify/internal/apperr"
	"github.com/stanstork/condo-notify/internal/models"
	"github.com/stanstork/condo-notify/internal/query"
)

type tokenKey struct{}

// WithBearerToken attaches the caller's token so it is forwarded upstream.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func bearerToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// NotificationAPI is the subset of the condominium service the gateway uses.
type NotificationAPI interface {
	Create(ctx context.Context, draft models.NotificationDraft) (models.Notification, error)
	Detail(ctx context.Context, id int) (models.Notification, error)
	List(ctx context.Context, actor models.Actor, q query.Query, page int) ([]models.Notification, error)
	UpdateStatus(ctx context.Context, id int, status models.NotificationStatus, version string) error
	MarkRead(ctx context.Context, id, userID int) error
	UnreadCount(ctx context.Context, userID int) (int, error)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

type Option func(*Client)

// WithStaticToken sets a token used when the context carries none.
func WithStaticToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func NewClient(baseURL string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With().Str("component", "upstream").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Create(ctx context.Context, draft models.NotificationDraft) (models.Notification, error) {
	body := createRequest{
		Title:          draft.Title,
		Message:        draft.Message,
		Type:           draft.Type,
		OriginID:       draft.OriginID,
		CreatedByStaff: draft.CreatedByStaff,
	}
	if draft.Apartment != nil {
		body.Block = draft.Apartment.Block
		body.Number = draft.Apartment.Number
	}
	var created models.Notification
	if err := c.do(ctx, http.MethodPost, "/Notificacao/CriarNotificacao", nil, body, &created); err != nil {
		return models.Notification{}, err
	}
	return created, nil
}

func (c *Client) Detail(ctx context.Context, id int) (models.Notification, error) {
	var n models.Notification
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/Notificacao/%d/detalhes", id), nil, nil, &n); err != nil {
		if apperr.IsNotFound(err) {
			return models.Notification{}, apperr.NotFound("notificacao", id)
		}
		return models.Notification{}, err
	}
	return n, nil
}

// List fetches one page of q for actor.
func (c *Client) List(ctx context.Context, actor models.Actor, q query.Query, page int) ([]models.Notification, error) {
	path, err := listPath(actor, q)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, q.Values(page, actor.IsStaff()), nil, &raw); err != nil {
		return nil, err
	}
	return decodeList(raw)
}

func listPath(actor models.Actor, q query.Query) (string, error) {
	switch q.Scope {
	case query.ScopeOpened:
		return fmt.Sprintf("/Notificacao/MinhasNotificacoes/%d", actor.UserID), nil
	case query.ScopeReceived:
		return fmt.Sprintf("/Notificacao/Recebidas/%d", actor.UserID), nil
	case query.ScopeAll:
		if q.Filtered() {
			return "/Notificacao/BuscarNotificacaoPor", nil
		}
		return "/Notificacao/ListarTodas", nil
	}
	return "", apperr.FilterValidation("Escopo de listagem desconhecido: %q", string(q.Scope))
}

// decodeList accepts the documented {notificacoes: [...]} envelope and a bare array.
func decodeList(raw json.RawMessage) ([]models.Notification, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []models.Notification{}, nil
	}
	if trimmed[0] == '[' {
		var items []models.Notification
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, errors.Wrap(err, "decoding notification list")
		}
		return items, nil
	}
	var resp listResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, errors.Wrap(err, "decoding notification list")
	}
	if resp.Notifications == nil {
		return []models.Notification{}, nil
	}
	return resp.Notifications, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id int, status models.NotificationStatus, version string) error {
	body := statusRequest{Status: status, Version: version}
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/Notificacao/%d/status", id), nil, body, nil)
	if apperr.IsNotFound(err) {
		return apperr.NotFound("notificacao", id)
	}
	return err
}

func (c *Client) MarkRead(ctx context.Context, id, userID int) error {
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/Notificacao/%d/lida", id), nil, markReadRequest{UserID: userID}, nil)
	if apperr.IsNotFound(err) {
		return apperr.NotFound("notificacao", id)
	}
	return err
}

func (c *Client) UnreadCount(ctx context.Context, userID int) (int, error) {
	var resp unreadResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/Notificacao/NaoLidas/%d", userID), nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// do performs one round trip. There are no retries: every failure is final for
// the user action that triggered it.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshaling request body")
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := bearerToken(ctx)
	if token == "" {
		token = c.token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("request to condominium service failed")
		return &apperr.NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperr.NetworkError{Op: method + " " + path, Err: err}
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("condominium service call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, path, respBody)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return &apperr.ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("resposta inválida de %s: %v", path, err),
		}
	}
	return nil
}

func statusError(code int, path string, body []byte) error {
	message := ""
	var payload ErrorResponse
	if json.Unmarshal(body, &payload) == nil {
		message = strings.TrimSpace(payload.Message)
	}
	switch code {
	case http.StatusNotFound:
		return apperr.NotFound("recurso", path)
	case http.StatusConflict:
		return &apperr.ConflictError{}
	}
	if message == "" {
		message = apperr.GenericServerMessage
	}
	return &apperr.ServerError{StatusCode: code, Message: message}
}
