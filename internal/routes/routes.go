package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stanstork/condo-notify/internal/authz"
	"github.com/stanstork/condo-notify/internal/handlers"
)

// NewRouter wires the gateway surface. Everything under /api requires a bearer token.
func NewRouter(auth *authz.Authenticator, notifications *handlers.NotificationHandler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware)

	n := api.PathPrefix("/notificacoes").Subrouter()
	n.HandleFunc("/opcoes-filtro", notifications.FilterOptions).Methods(http.MethodGet)
	n.HandleFunc("/abertas", notifications.ListOpened).Methods(http.MethodGet)
	n.HandleFunc("/recebidas", notifications.ListReceived).Methods(http.MethodGet)
	n.HandleFunc("/nao-lidas", notifications.UnreadCount).Methods(http.MethodGet)
	n.Handle("", authz.RequireStaff(http.HandlerFunc(notifications.ListAll))).Methods(http.MethodGet)
	n.HandleFunc("", notifications.Create).Methods(http.MethodPost)
	n.HandleFunc("/{id:[0-9]+}", notifications.Detail).Methods(http.MethodGet)
	n.HandleFunc("/{id:[0-9]+}/status", notifications.UpdateStatus).Methods(http.MethodPut)
	n.HandleFunc("/{id:[0-9]+}/lida", notifications.MarkRead).Methods(http.MethodPut)
	n.HandleFunc("/{id:[0-9]+}/comentarios", notifications.ListComments).Methods(http.MethodGet)
	n.HandleFunc("/{id:[0-9]+}/comentarios", notifications.AddComment).Methods(http.MethodPost)

	return router
}
