// Package apperr holds the error taxonomy shared by the lifecycle model, the
// query contract and the upstream client.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// GenericServerMessage is shown when the condominium service fails without a message.
const GenericServerMessage = "Erro ao comunicar com o servidor"

// ValidationError is a client-side rule violation; it is never sent upstream.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// FilterValidationError means a list query carried no usable filter or an
// out-of-scope value. The request is not issued.
type FilterValidationError struct {
	Message string
}

func (e *FilterValidationError) Error() string {
	return e.Message
}

func FilterValidation(format string, args ...interface{}) error {
	return &FilterValidationError{Message: fmt.Sprintf(format, args...)}
}

// NetworkError wraps a transport failure talking to the condominium service.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a non-success response from the condominium service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func NotFound(resource string, id interface{}) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// TransitionError is an attempt to move a notification along an edge the
// lifecycle graph does not have.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s is not allowed", e.From, e.To)
}

// ConflictError signals a stale version token on a write.
type ConflictError struct {
	Expected string
	Actual   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("notification changed since it was read (expected version %s, current %s)", e.Expected, e.Actual)
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func Forbidden(message string) error {
	return &ForbiddenError{Message: message}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsFilterValidation(err error) bool {
	var v *FilterValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}

func IsNetwork(err error) bool {
	var v *NetworkError
	return errors.As(err, &v)
}

func IsServer(err error) bool {
	var v *ServerError
	return errors.As(err, &v)
}

func IsTransition(err error) bool {
	var v *TransitionError
	return errors.As(err, &v)
}

func IsConflict(err error) bool {
	var v *ConflictError
	return errors.As(err, &v)
}

func IsForbidden(err error) bool {
	var v *ForbiddenError
	return errors.As(err, &v)
}

// UserMessage renders err as the human-readable text a screen displays.
func UserMessage(err error) string {
	var (
		validation *ValidationError
		filter     *FilterValidationError
		network    *NetworkError
		server     *ServerError
		notFound   *NotFoundError
		transition *TransitionError
		conflict   *ConflictError
		forbidden  *ForbiddenError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &filter):
		return filter.Message
	case errors.As(err, &network):
		return "Não foi possível conectar ao servidor"
	case errors.As(err, &server):
		if server.Message != "" {
			return server.Message
		}
		return GenericServerMessage
	case errors.As(err, &notFound):
		return "Notificação não encontrada"
	case errors.As(err, &transition):
		return "Mudança de status não permitida"
	case errors.As(err, &conflict):
		return "A notificação foi alterada por outra pessoa; recarregue e tente novamente"
	case errors.As(err, &forbidden):
		return forbidden.Message
	default:
		return "Erro inesperado"
	}
}
