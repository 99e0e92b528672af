package query

import (
	"strings"

	"github.com/stanstork/condo-notify/internal/apperr"
	"github.com/stanstork/condo-notify/internal/models"
)

// Scope is the list a query runs against.
type Scope string

const (
	ScopeOpened   Scope = "abertas"
	ScopeReceived Scope = "recebidas"
	ScopeAll      Scope = "todas"
)

func ParseScope(raw string) (Scope, error) {
	switch s := Scope(strings.ToLower(strings.TrimSpace(raw))); s {
	case ScopeOpened, ScopeReceived, ScopeAll:
		return s, nil
	}
	return "", apperr.FilterValidation("Escopo de listagem desconhecido: %q", raw)
}

// Capabilities describes what a scope lets a user select. Every screen variant
// renders its options from one of these instead of keeping its own lists.
type Capabilities struct {
	Scope           Scope                       `json:"escopo"`
	Statuses        []models.NotificationStatus `json:"status"`
	Types           []models.NotificationType   `json:"tipos"`
	ApartmentFilter bool                        `json:"filtroApartamento"`
	StaffOnly       bool                        `json:"somenteAdministracao"`
}

// CapabilitiesFor returns the descriptor of scope. A recipient never acts on Sent
// or Rejected notifications, and GeneralNotice is only ever received.
func CapabilitiesFor(scope Scope) (Capabilities, error) {
	switch scope {
	case ScopeOpened:
		return Capabilities{
			Scope:    ScopeOpened,
			Statuses: append([]models.NotificationStatus(nil), models.AllStatuses...),
			Types: []models.NotificationType{
				models.TypeNoiseComplaint,
				models.TypeRepairRequest,
				models.TypeSuggestion,
				models.TypeOther,
			},
		}, nil
	case ScopeReceived:
		return Capabilities{
			Scope: ScopeReceived,
			Statuses: []models.NotificationStatus{
				models.StatusApproved,
				models.StatusInProgress,
				models.StatusCompleted,
			},
			Types: append([]models.NotificationType(nil), models.AllTypes...),
		}, nil
	case ScopeAll:
		return Capabilities{
			Scope:           ScopeAll,
			Statuses:        append([]models.NotificationStatus(nil), models.AllStatuses...),
			Types:           append([]models.NotificationType(nil), models.AllTypes...),
			ApartmentFilter: true,
			StaffOnly:       true,
		}, nil
	}
	return Capabilities{}, apperr.FilterValidation("Escopo de listagem desconhecido: %q", string(scope))
}

func (c Capabilities) AllowsStatus(s models.NotificationStatus) bool {
	for _, allowed := range c.Statuses {
		if allowed == s {
			return true
		}
	}
	return false
}

func (c Capabilities) AllowsType(t models.NotificationType) bool {
	for _, allowed := range c.Types {
		if allowed == t {
			return true
		}
	}
	return false
}

// Option is a selectable value with its display label.
type Option struct {
	Value int    `json:"valor"`
	Slug  string `json:"slug"`
	Label string `json:"rotulo"`
}

// StatusOptions renders the selectable statuses for a dropdown.
func (c Capabilities) StatusOptions() []Option {
	out := make([]Option, 0, len(c.Statuses))
	for _, s := range c.Statuses {
		out = append(out, Option{Value: int(s), Slug: s.Slug(), Label: s.Label()})
	}
	return out
}

func (c Capabilities) TypeOptions() []Option {
	out := make([]Option, 0, len(c.Types))
	for _, t := range c.Types {
		out = append(out, Option{Value: int(t), Slug: t.Slug(), Label: t.Label()})
	}
	return out
}
