package upstream

import "github.com/stanstork/condo-notify/internal/models"

type createRequest struct {
	Title          string                  `json:"titulo"`
	Message        string                  `json:"mensagem"`
	Type           models.NotificationType `json:"tipo"`
	OriginID       int                     `json:"moradorOrigemId"`
	CreatedByStaff bool                    `json:"criadoPorSindico"`
	Block          string                  `json:"bloco,omitempty"`
	Number         string                  `json:"numero,omitempty"`
}

type statusRequest struct {
	Status  models.NotificationStatus `json:"status"`
	Version string                    `json:"versao"`
}

type markReadRequest struct {
	UserID int `json:"usuarioId"`
}

type listResponse struct {
	Notifications []models.Notification `json:"notificacoes"`
}

type unreadResponse struct {
	Count int `json:"quantidade"`
}

// ErrorResponse is the error payload of the condominium service.
type ErrorResponse struct {
	Message string `json:"mensagem"`
}
