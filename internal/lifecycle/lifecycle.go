// Package lifecycle defines the notification state machine: legal transitions,
// who may perform them, and the side effects each one has on history, the
// recipient read ledger and comments.
package lifecycle

import (
	"strings"
	"time"

	"github.com/stanstork/condo-notify/internal/apperr"
	"github.com/stanstork/condo-notify/internal/models"
)

// transitions is the full graph. Rejected and Completed have no outgoing edges.
var transitions = map[models.NotificationStatus][]models.NotificationStatus{
	models.StatusSent:       {models.StatusApproved, models.StatusRejected},
	models.StatusApproved:   {models.StatusInProgress},
	models.StatusInProgress: {models.StatusCompleted},
}

var actionLabels = map[models.NotificationStatus]string{
	models.StatusApproved:   "Notificação aprovada",
	models.StatusRejected:   "Notificação rejeitada",
	models.StatusInProgress: "Atendimento iniciado",
	models.StatusCompleted:  "Notificação concluída",
}

// InitialStatus is the status every notification is created in.
const InitialStatus = models.StatusSent

// Next returns the statuses reachable from s in one step.
func Next(s models.NotificationStatus) []models.NotificationStatus {
	next := transitions[s]
	out := make([]models.NotificationStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to models.NotificationStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a TransitionError when from -> to is not an edge.
func CheckTransition(from, to models.NotificationStatus) error {
	if !to.IsValid() {
		return apperr.Validation("status", "status inválido")
	}
	if !CanTransition(from, to) {
		return &apperr.TransitionError{From: from.String(), To: to.String()}
	}
	return nil
}

// ActionLabel is the history text recorded for a move into status to.
func ActionLabel(to models.NotificationStatus) string {
	return actionLabels[to]
}

// Authorize decides whether actor may move n to target. Approval and rejection
// belong to staff; recipients may also carry an approved notification through
// to completion.
func Authorize(actor models.Actor, n *models.Notification, target models.NotificationStatus) error {
	if actor.IsStaff() {
		return nil
	}
	switch target {
	case models.StatusInProgress, models.StatusCompleted:
		if n.IsRecipient(actor.UserID) {
			return nil
		}
		return apperr.Forbidden("Somente destinatários ou a administração podem atualizar esta notificação")
	default:
		return apperr.Forbidden("Somente a administração pode aprovar ou rejeitar notificações")
	}
}

// Advance moves n to target, stamps the update time and appends exactly one
// history entry. n is left untouched when the edge does not exist.
func Advance(n *models.Notification, target models.NotificationStatus, at time.Time) error {
	if err := CheckTransition(n.Status, target); err != nil {
		return err
	}
	stamp := models.NewTimestamp(at)
	n.Status = target
	n.UpdatedAt = stamp
	n.History = append(n.History, models.HistoryEntry{
		Action:    ActionLabel(target),
		NewStatus: target,
		At:        stamp,
	})
	return nil
}

// MarkRead flips the recipient's read flag. It reports whether anything changed;
// marking an already-read recipient is a no-op.
func MarkRead(n *models.Notification, userID int) (bool, error) {
	recipient, ok := n.Recipient(userID)
	if !ok {
		return false, apperr.NotFound("recipient", userID)
	}
	if recipient.Read {
		return false, nil
	}
	recipient.Read = true
	return true, nil
}

// AddComment validates c and returns the list with c at the front.
func AddComment(comments []models.Comment, c models.Comment) ([]models.Comment, error) {
	c.Text = strings.TrimSpace(c.Text)
	if c.Text == "" {
		return comments, apperr.Validation("texto", "O comentário não pode ser vazio")
	}
	out := make([]models.Comment, 0, len(comments)+1)
	out = append(out, c)
	return append(out, comments...), nil
}

// ValidateDraft applies the creation rules. It normalises whitespace in place.
func ValidateDraft(actor models.Actor, d *models.NotificationDraft) error {
	d.Title = strings.TrimSpace(d.Title)
	d.Message = strings.TrimSpace(d.Message)
	if d.Title == "" {
		return apperr.Validation("titulo", "O título é obrigatório")
	}
	if d.Message == "" {
		return apperr.Validation("mensagem", "A mensagem é obrigatória")
	}
	if !d.Type.IsValid() {
		return apperr.Validation("tipo", "Selecione um tipo de notificação válido")
	}
	if d.Type.StaffOnly() && !actor.IsStaff() {
		return apperr.Forbidden("Somente a administração pode enviar avisos gerais")
	}
	if d.Type.RequiresApartment() {
		if d.Apartment == nil || !d.Apartment.IsComplete() {
			return apperr.Validation("apartamento", "Informe o bloco e o número do apartamento")
		}
		d.Apartment.Block = strings.TrimSpace(d.Apartment.Block)
		d.Apartment.Number = strings.TrimSpace(d.Apartment.Number)
	} else {
		d.Apartment = nil
	}
	d.OriginID = actor.UserID
	d.CreatedByStaff = actor.IsStaff()
	return nil
}

// ValidateHistory checks that history traces a path through the graph starting
// from Sent.
func ValidateHistory(history []models.HistoryEntry) error {
	current := InitialStatus
	for _, entry := range history {
		if err := CheckTransition(current, entry.NewStatus); err != nil {
			return err
		}
		current = entry.NewStatus
	}
	return nil
}
