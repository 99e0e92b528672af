package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stanstork/condo-notify/internal/apperr"
	"github.com/stanstork/condo-notify/internal/authz"
	"github.com/stanstork/condo-notify/internal/models"
	"github.com/stanstork/condo-notify/internal/notification"
	"github.com/stanstork/condo-notify/internal/query"
)

type NotificationHandler struct {
	service notification.Service
	logger  zerolog.Logger
}

func NewNotificationHandler(service notification.Service, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("handler", "notification").Logger(),
	}
}

type createRequest struct {
	Title     string                  `json:"titulo"`
	Message   string                  `json:"mensagem"`
	Type      models.NotificationType `json:"tipo"`
	Block     string                  `json:"bloco"`
	Apartment string                  `json:"numero"`
}

type statusRequest struct {
	Status  models.NotificationStatus `json:"status"`
	Version string                    `json:"versao"`
}

type commentRequest struct {
	Text string `json:"texto"`
}

type filterOptionsResponse struct {
	query.Capabilities
	StatusOptions []query.Option `json:"opcoesStatus"`
	TypeOptions   []query.Option `json:"opcoesTipo"`
	Periods       []string       `json:"periodos"`
}

// respond writes body as JSON and logs when it cannot be encoded.
func (h *NotificationHandler) respond(w http.ResponseWriter, status int, body interface{}) {
	if err := writeJSON(w, status, body); err != nil {
		h.logger.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}

func (h *NotificationHandler) actor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := authz.ActorFromRequest(r)
	if !ok {
		h.respond(w, http.StatusUnauthorized, errorBody{Message: "Sessão inválida"})
		return models.Actor{}, false
	}
	return actor, true
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("", "Corpo da requisição inválido: "+err.Error())
	}
	return nil
}

func notificationID(r *http.Request) (int, error) {
	raw := strings.TrimSpace(mux.Vars(r)["id"])
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id", "Identificador de notificação inválido")
	}
	return id, nil
}

// filterFromRequest reads the list query parameters. Unknown parameters are ignored.
func filterFromRequest(r *http.Request) (query.Filter, int) {
	v := r.URL.Query()
	showAll, _ := strconv.ParseBool(strings.TrimSpace(v.Get("todas")))
	f := query.Filter{
		Mode:      query.Mode(strings.ToLower(strings.TrimSpace(v.Get("modo")))),
		Dimension: query.Dimension(strings.ToLower(strings.TrimSpace(v.Get("filtro")))),
		Status:    v.Get("status"),
		Type:      v.Get("tipo"),
		Period:    strings.ToLower(strings.TrimSpace(v.Get("periodo"))),
		StartDate: v.Get("dataInicio"),
		EndDate:   v.Get("dataFim"),
		Block:     v.Get("bloco"),
		Apartment: v.Get("apartamento"),
		ShowAll:   showAll,
	}
	page, err := strconv.Atoi(strings.TrimSpace(v.Get("pagina")))
	if err != nil || page < 1 {
		page = 1
	}
	return f, page
}

func (h *NotificationHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	scope, err := query.ParseScope(r.URL.Query().Get("escopo"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	caps, err := h.service.FilterOptions(actor, scope)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, filterOptionsResponse{
		Capabilities:  caps,
		StatusOptions: caps.StatusOptions(),
		TypeOptions:   caps.TypeOptions(),
		Periods:       []string{query.PeriodLastWeek, query.PeriodLastMonth, query.PeriodCustom},
	})
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	draft := models.NotificationDraft{
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
	}
	if req.Block != "" || req.Apartment != "" {
		draft.Apartment = &models.Apartment{Block: req.Block, Number: req.Apartment}
	}

	created, err := h.service.Create(r.Context(), actor, draft)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info().Int("notification_id", created.ID).Int("actor_id", actor.UserID).Msg("notification created")
	h.respond(w, http.StatusCreated, created)
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request, scope query.Scope) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	filter, page := filterFromRequest(r)
	result, err := h.service.List(r.Context(), actor, scope, filter, page)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, result)
}

func (h *NotificationHandler) ListOpened(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, query.ScopeOpened)
}

func (h *NotificationHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, query.ScopeReceived)
}

func (h *NotificationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, query.ScopeAll)
}

// UnreadCount never fails; the badge shows zero when the count is unavailable.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	h.respond(w, http.StatusOK, map[string]int{"quantidade": h.service.UnreadCount(r.Context(), actor)})
}

func (h *NotificationHandler) Detail(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := notificationID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	n, err := h.service.Detail(r.Context(), actor, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, n)
}

func (h *NotificationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := notificationID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	n, err := h.service.Advance(r.Context(), actor, id, req.Status, req.Version)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, n)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := notificationID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.MarkRead(r.Context(), actor, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := notificationID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	comments, err := h.service.ListComments(r.Context(), actor, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{"comentarios": comments})
}

func (h *NotificationHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := notificationID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	comment, err := h.service.AddComment(r.Context(), actor, id, req.Text)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusCreated, comment)
}
