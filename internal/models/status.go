package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NotificationStatus is the lifecycle stage of a notification. On the wire it
// travels as a small integer (1..5).
type NotificationStatus int

const (
	StatusSent       NotificationStatus = 1
	StatusApproved   NotificationStatus = 2
	StatusRejected   NotificationStatus = 3
	StatusInProgress NotificationStatus = 4
	StatusCompleted  NotificationStatus = 5
)

// AllStatuses lists every status in wire order.
var AllStatuses = []NotificationStatus{StatusSent, StatusApproved, StatusRejected, StatusInProgress, StatusCompleted}

var statusSlugs = map[NotificationStatus]string{
	StatusSent:       "enviada",
	StatusApproved:   "aprovada",
	StatusRejected:   "rejeitada",
	StatusInProgress: "em_andamento",
	StatusCompleted:  "concluida",
}

var statusLabels = map[NotificationStatus]string{
	StatusSent:       "Enviada",
	StatusApproved:   "Aprovada",
	StatusRejected:   "Rejeitada",
	StatusInProgress: "Em andamento",
	StatusCompleted:  "Concluída",
}

func (s NotificationStatus) IsValid() bool {
	_, ok := statusSlugs[s]
	return ok
}

// IsTerminal reports whether no further transition can leave s.
func (s NotificationStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

func (s NotificationStatus) Slug() string {
	return statusSlugs[s]
}

func (s NotificationStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("Status %d", int(s))
}

func (s NotificationStatus) String() string {
	if slug, ok := statusSlugs[s]; ok {
		return slug
	}
	return strconv.Itoa(int(s))
}

// ParseStatus accepts either the wire integer ("4") or the slug ("em_andamento").
func ParseStatus(raw string) (NotificationStatus, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(raw); err == nil {
		s := NotificationStatus(n)
		if !s.IsValid() {
			return 0, fmt.Errorf("unknown status %d", n)
		}
		return s, nil
	}
	for s, slug := range statusSlugs {
		if slug == raw {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", raw)
}

func (s NotificationStatus) MarshalJSON() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("cannot encode status %d", int(s))
	}
	return json.Marshal(int(s))
}

// UnmarshalJSON decodes the wire integer. Slugs in string form are accepted so
// screens can post either representation.
func (s *NotificationStatus) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		parsed := NotificationStatus(n)
		if !parsed.IsValid() {
			return fmt.Errorf("unknown status %d", n)
		}
		*s = parsed
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be an integer or slug: %s", string(data))
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// NotificationType classifies a notification. Wire values are 1..5.
type NotificationType int

const (
	TypeNoiseComplaint NotificationType = 1
	TypeRepairRequest  NotificationType = 2
	TypeSuggestion     NotificationType = 3
	TypeOther          NotificationType = 4
	TypeGeneralNotice  NotificationType = 5
)

// AllTypes lists every type in wire order.
var AllTypes = []NotificationType{TypeNoiseComplaint, TypeRepairRequest, TypeSuggestion, TypeOther, TypeGeneralNotice}

var typeSlugs = map[NotificationType]string{
	TypeNoiseComplaint: "reclamacao_barulho",
	TypeRepairRequest:  "solicitacao_reparo",
	TypeSuggestion:     "sugestao",
	TypeOther:          "outro",
	TypeGeneralNotice:  "aviso_geral",
}

var typeLabels = map[NotificationType]string{
	TypeNoiseComplaint: "Reclamação de barulho",
	TypeRepairRequest:  "Solicitação de reparo",
	TypeSuggestion:     "Sugestão",
	TypeOther:          "Outro",
	TypeGeneralNotice:  "Aviso geral",
}

func (t NotificationType) IsValid() bool {
	_, ok := typeSlugs[t]
	return ok
}

// RequiresApartment reports whether the type targets a specific unit.
func (t NotificationType) RequiresApartment() bool {
	return t == TypeNoiseComplaint
}

// StaffOnly reports whether only staff may originate the type.
func (t NotificationType) StaffOnly() bool {
	return t == TypeGeneralNotice
}

func (t NotificationType) Slug() string {
	return typeSlugs[t]
}

func (t NotificationType) Label() string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return fmt.Sprintf("Tipo %d", int(t))
}

func (t NotificationType) String() string {
	if slug, ok := typeSlugs[t]; ok {
		return slug
	}
	return strconv.Itoa(int(t))
}

// ParseType accepts either the wire integer ("1") or the slug ("reclamacao_barulho").
func ParseType(raw string) (NotificationType, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(raw); err == nil {
		t := NotificationType(n)
		if !t.IsValid() {
			return 0, fmt.Errorf("unknown type %d", n)
		}
		return t, nil
	}
	for t, slug := range typeSlugs {
		if slug == raw {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown type %q", raw)
}

func (t NotificationType) MarshalJSON() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("cannot encode type %d", int(t))
	}
	return json.Marshal(int(t))
}

func (t *NotificationType) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		parsed := NotificationType(n)
		if !parsed.IsValid() {
			return fmt.Errorf("unknown type %d", n)
		}
		*t = parsed
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("type must be an integer or slug: %s", string(data))
	}
	parsed, err := ParseType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
