package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stanstork/condo-notify/internal/apperr"
	"github.com/stanstork/condo-notify/internal/lifecycle"
	"github.com/stanstork/condo-notify/internal/models"
	"github.com/stanstork/condo-notify/internal/query"
	"github.com/stanstork/condo-notify/internal/repository"
	"github.com/stanstork/condo-notify/internal/upstream"
)

type Service interface {
	Create(ctx context.Context, actor models.Actor, draft models.NotificationDraft) (models.Notification, error)
	Detail(ctx context.Context, actor models.Actor, id int) (models.Notification, error)
	Advance(ctx context.Context, actor models.Actor, id int, target models.NotificationStatus, version string) (models.Notification, error)
	MarkRead(ctx context.Context, actor models.Actor, id int) error
	List(ctx context.Context, actor models.Actor, scope query.Scope, filter query.Filter, page int) (models.NotificationPage, error)
	FetchPage(ctx context.Context, actor models.Actor, q query.Query, page int) ([]models.Notification, error)
	FilterOptions(actor models.Actor, scope query.Scope) (query.Capabilities, error)
	UnreadCount(ctx context.Context, actor models.Actor) int
	ListComments(ctx context.Context, actor models.Actor, id int) ([]models.Comment, error)
	AddComment(ctx context.Context, actor models.Actor, id int, text string) (models.Comment, error)
}

type service struct {
	api       upstream.NotificationAPI
	comments  repository.CommentRepository
	logger    zerolog.Logger
	notifiers []Notifier
	now       func() time.Time
}

func NewService(api upstream.NotificationAPI, comments repository.CommentRepository, logger zerolog.Logger, notifiers ...Notifier) Service {
	active := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	return &service{
		api:       api,
		comments:  comments,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		notifiers: active,
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, actor models.Actor, draft models.NotificationDraft) (models.Notification, error) {
	if err := lifecycle.ValidateDraft(actor, &draft); err != nil {
		return models.Notification{}, err
	}
	created, err := s.api.Create(ctx, draft)
	if err != nil {
		s.logger.Error().Err(err).Int("actor_id", actor.UserID).Str("tipo", draft.Type.Slug()).Msg("failed to create notification")
		return models.Notification{}, err
	}
	return completeCreated(created, actor, draft), nil
}

// completeCreated fills what the condominium service left out of a create
// response from the validated draft it was built from.
func completeCreated(n models.Notification, actor models.Actor, draft models.NotificationDraft) models.Notification {
	if n.Status == 0 {
		n.Status = lifecycle.InitialStatus
	}
	if n.Title == "" {
		n.Title = draft.Title
	}
	if n.Message == "" {
		n.Message = draft.Message
	}
	if n.Type == 0 {
		n.Type = draft.Type
	}
	if !n.CreatedByStaff {
		n.CreatedByStaff = draft.CreatedByStaff
	}
	if n.Origin == nil {
		n.Origin = &models.Resident{ID: draft.OriginID, Name: actor.Name}
		if draft.Apartment != nil {
			n.Origin.Block = draft.Apartment.Block
			n.Origin.Apartment = draft.Apartment.Number
		}
	}
	return n
}

// Detail fetches a notification and, when the caller is an unread recipient,
// marks it read. The read update is best effort.
func (s *service) Detail(ctx context.Context, actor models.Actor, id int) (models.Notification, error) {
	n, err := s.api.Detail(ctx, id)
	if err != nil {
		return models.Notification{}, err
	}
	if err := lifecycle.ValidateHistory(n.History); err != nil {
		s.logger.Warn().Err(err).Int("notification_id", id).Msg("inconsistent notification history")
	}

	recipient, ok := n.Recipient(actor.UserID)
	if ok && !recipient.Read {
		if err := s.api.MarkRead(ctx, id, actor.UserID); err != nil {
			s.logger.Warn().Err(err).Int("notification_id", id).Int("user_id", actor.UserID).Msg("failed to mark notification read")
		} else {
			_, _ = lifecycle.MarkRead(&n, actor.UserID)
		}
	}
	if ok {
		read := recipient.Read
		n.Read = &read
	}
	return n, nil
}

// Advance moves a notification one step along the lifecycle graph. version must
// be the ultimaAtualizacao the caller last saw.
func (s *service) Advance(ctx context.Context, actor models.Actor, id int, target models.NotificationStatus, version string) (models.Notification, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return models.Notification{}, apperr.Validation("versao", "Informe a versão da notificação")
	}
	expected, err := models.ParseTimestamp(version)
	if err != nil {
		return models.Notification{}, apperr.Validation("versao", "Versão da notificação inválida")
	}
	if !target.IsValid() {
		return models.Notification{}, apperr.Validation("status", "status inválido")
	}

	current, err := s.api.Detail(ctx, id)
	if err != nil {
		return models.Notification{}, err
	}
	if current.Version() != expected.Token() {
		return models.Notification{}, &apperr.ConflictError{Expected: expected.Token(), Actual: current.Version()}
	}
	if err := lifecycle.Authorize(actor, &current, target); err != nil {
		return models.Notification{}, err
	}
	if err := lifecycle.CheckTransition(current.Status, target); err != nil {
		return models.Notification{}, err
	}

	from := current.Status
	if err := s.api.UpdateStatus(ctx, id, target, current.Version()); err != nil {
		s.logger.Error().Err(err).Int("notification_id", id).Str("to", target.Slug()).Msg("failed to update notification status")
		return models.Notification{}, err
	}

	at := s.now()
	updated, err := s.api.Detail(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Int("notification_id", id).Msg("failed to reload notification after transition")
		updated = current
		updated.History = append([]models.HistoryEntry(nil), current.History...)
		if err := lifecycle.Advance(&updated, target, at); err != nil {
			return models.Notification{}, err
		}
	}

	s.publish(ctx, TransitionEvent{Notification: updated, From: from, To: target, Actor: actor, At: at})
	return updated, nil
}

func (s *service) publish(ctx context.Context, evt TransitionEvent) {
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, evt); err != nil {
			logNotifyError(s.logger, err, notifierChannelName(notifier), evt)
		}
	}
}

// MarkRead is idempotent; only an unread recipient causes a write.
func (s *service) MarkRead(ctx context.Context, actor models.Actor, id int) error {
	n, err := s.api.Detail(ctx, id)
	if err != nil {
		return err
	}
	changed, err := lifecycle.MarkRead(&n, actor.UserID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.api.MarkRead(ctx, id, actor.UserID)
}

func (s *service) FilterOptions(actor models.Actor, scope query.Scope) (query.Capabilities, error) {
	caps, err := query.CapabilitiesFor(scope)
	if err != nil {
		return query.Capabilities{}, err
	}
	if caps.StaffOnly && !actor.IsStaff() {
		return query.Capabilities{}, apperr.Forbidden("Somente a administração pode consultar todas as notificações")
	}
	return caps, nil
}

// List validates filter for scope and fetches one page. A rejected filter
// never reaches the condominium service.
func (s *service) List(ctx context.Context, actor models.Actor, scope query.Scope, filter query.Filter, page int) (models.NotificationPage, error) {
	caps, err := s.FilterOptions(actor, scope)
	if err != nil {
		return models.NotificationPage{}, err
	}
	q, err := query.Build(filter, caps, s.now())
	if err != nil {
		return models.NotificationPage{}, err
	}
	if page < 1 {
		page = 1
	}
	items, err := s.FetchPage(ctx, actor, q, page)
	if err != nil {
		return models.NotificationPage{}, err
	}
	return models.NotificationPage{
		Notifications: items,
		Page:          page,
		PageSize:      query.PageSize,
		HasMore:       query.HasMore(len(items)),
	}, nil
}

// FetchPage issues an already validated query. It satisfies query.Fetcher once
// bound to an actor.
func (s *service) FetchPage(ctx context.Context, actor models.Actor, q query.Query, page int) ([]models.Notification, error) {
	items, err := s.api.List(ctx, actor, q, page)
	if err != nil {
		s.logger.Warn().Err(err).Str("escopo", string(q.Scope)).Int("page", page).Msg("failed to list notifications")
		return nil, err
	}
	return items, nil
}

// UnreadCount feeds the badge; any failure reads as zero.
func (s *service) UnreadCount(ctx context.Context, actor models.Actor) int {
	count, err := s.api.UnreadCount(ctx, actor.UserID)
	if err != nil {
		s.logger.Debug().Err(err).Int("user_id", actor.UserID).Msg("unread count unavailable")
		return 0
	}
	if count < 0 {
		return 0
	}
	return count
}

func (s *service) ListComments(ctx context.Context, actor models.Actor, id int) ([]models.Comment, error) {
	if _, err := s.api.Detail(ctx, id); err != nil {
		return nil, err
	}
	return s.comments.ListByNotification(ctx, id)
}

func (s *service) AddComment(ctx context.Context, actor models.Actor, id int, text string) (models.Comment, error) {
	validated, err := lifecycle.AddComment(nil, models.Comment{Text: text})
	if err != nil {
		return models.Comment{}, err
	}
	if _, err := s.api.Detail(ctx, id); err != nil {
		return models.Comment{}, err
	}
	comment, err := s.comments.Create(ctx, repository.CreateCommentParams{
		NotificationID: id,
		AuthorID:       actor.UserID,
		AuthorName:     authorName(actor),
		Text:           validated[0].Text,
	})
	if err != nil {
		s.logger.Error().Err(err).Int("notification_id", id).Msg("failed to store comment")
		return models.Comment{}, err
	}
	return comment, nil
}

func authorName(actor models.Actor) string {
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	return fmt.Sprintf("Usuário %d", actor.UserID)
}

func notifierChannelName(n Notifier) string {
	type named interface {
		String() string
	}
	if v, ok := n.(named); ok {
		return v.String()
	}
	return fmt.Sprintf("%T", n)
}
