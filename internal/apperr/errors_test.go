package apperr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestUserMessageSurvivesWrapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"validation", Validation("titulo", "Informe o título"), "Informe o título"},
		{"filter", FilterValidation("Selecione pelo menos um filtro"), "Selecione pelo menos um filtro"},
		{"network", &NetworkError{Op: "detail", Err: errors.New("refused")}, "Não foi possível conectar ao servidor"},
		{"server with message", &ServerError{StatusCode: 500, Message: "Falha interna"}, "Falha interna"},
		{"server fallback", &ServerError{StatusCode: 500}, GenericServerMessage},
		{"not found", NotFound("notification", 7), "Notificação não encontrada"},
		{"transition", &TransitionError{From: "enviada", To: "concluida"}, "Mudança de status não permitida"},
		{"forbidden", Forbidden("Apenas a administração pode aprovar"), "Apenas a administração pode aprovar"},
		{"unknown", errors.New("boom"), "Erro inesperado"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, UserMessage(errors.Wrap(tc.err, "context")))
		})
	}
}

func TestPredicates(t *testing.T) {
	wrapped := errors.Wrap(&ConflictError{Expected: "a", Actual: "b"}, "advance")
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsTransition(wrapped))

	network := &NetworkError{Op: "list", Err: errors.New("timeout")}
	assert.True(t, IsNetwork(network))
	assert.False(t, IsServer(network))
	assert.EqualError(t, errors.Unwrap(network), "timeout")

	assert.True(t, IsValidation(Validation("", "x")))
	assert.EqualError(t, Validation("", "sem campo"), "sem campo")
	assert.EqualError(t, Validation("versao", "inválida"), "versao: inválida")
}
