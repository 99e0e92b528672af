package models

import (
	"strings"
	"time"
)

// Apartment identifies a unit by block and number.
type Apartment struct {
	Block  string `json:"bloco"`
	Number string `json:"numero"`
}

func (a Apartment) IsComplete() bool {
	return strings.TrimSpace(a.Block) != "" && strings.TrimSpace(a.Number) != ""
}

// Resident is the origin of a notification as reported by the condominium service.
type Resident struct {
	ID        int    `json:"id"`
	Name      string `json:"nome"`
	Block     string `json:"bloco,omitempty"`
	Apartment string `json:"apartamento,omitempty"`
}

type Recipient struct {
	UserID int    `json:"usuarioId"`
	Name   string `json:"nome"`
	Read   bool   `json:"lido"`
}

// HistoryEntry records one applied status transition. Entries are append-only.
type HistoryEntry struct {
	Action    string             `json:"acao"`
	NewStatus NotificationStatus `json:"statusNovo"`
	At        Timestamp          `json:"dataRegistro"`
}

type Notification struct {
	ID             int                `json:"id"`
	Title          string             `json:"titulo"`
	Message        string             `json:"mensagem"`
	Type           NotificationType   `json:"tipo"`
	Status         NotificationStatus `json:"status"`
	CreatedAt      Timestamp          `json:"dataCriacao"`
	UpdatedAt      Timestamp          `json:"ultimaAtualizacao"`
	CreatedByStaff bool               `json:"criadoPorSindico"`
	Origin         *Resident          `json:"moradorOrigem,omitempty"`
	Read           *bool              `json:"lido,omitempty"`
	Recipients     []Recipient        `json:"destinatarios,omitempty"`
	History        []HistoryEntry     `json:"historico,omitempty"`
}

// Version is the optimistic-concurrency token of the notification.
func (n *Notification) Version() string {
	return n.UpdatedAt.Token()
}

func (n *Notification) Recipient(userID int) (*Recipient, bool) {
	for i := range n.Recipients {
		if n.Recipients[i].UserID == userID {
			return &n.Recipients[i], true
		}
	}
	return nil, false
}

func (n *Notification) IsRecipient(userID int) bool {
	_, ok := n.Recipient(userID)
	return ok
}

func (n *Notification) UnreadCount() int {
	count := 0
	for _, r := range n.Recipients {
		if !r.Read {
			count++
		}
	}
	return count
}

// Comment is a remark attached to a notification, kept by the gateway.
type Comment struct {
	ID             string    `json:"id" db:"id"`
	NotificationID int       `json:"notificacaoId" db:"notificacao_id"`
	AuthorID       int       `json:"autorId" db:"autor_id"`
	AuthorName     string    `json:"autorNome" db:"autor_nome"`
	Text           string    `json:"texto" db:"texto"`
	CreatedAt      time.Time `json:"dataCriacao" db:"data_criacao"`
}

// NotificationPage is one page of a list query.
type NotificationPage struct {
	Notifications []Notification `json:"notificacoes"`
	Page          int            `json:"pagina"`
	PageSize      int            `json:"tamanhoPagina"`
	HasMore       bool           `json:"temMais"`
}

// NotificationDraft is a notification about to be created.
type NotificationDraft struct {
	Title          string
	Message        string
	Type           NotificationType
	OriginID       int
	CreatedByStaff bool
	Apartment      *Apartment
}
