package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	chat "go-messenger/internal/pkg/chat/application/domain"
)

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("chat use case persistence error")

// Kind classifies an error for the transport layers.
type Kind int

const (
	KindTransientStore Kind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindValidation
)

var domainKinds = []struct {
	err  error
	kind Kind
}{
	{chat.ErrUnauthenticated, KindAuthentication},
	{chat.ErrNotParticipant, KindAuthorization},
	{chat.ErrConversationNotFound, KindNotFound},
	{chat.ErrUserNotFound, KindNotFound},
	{chat.ErrAlreadyParticipant, KindConflict},
	{chat.ErrNotGroupConversation, KindConflict},
	{chat.ErrEmptyContent, KindValidation},
	{chat.ErrInvalidCursor, KindValidation},
	{chat.ErrInvalidLimit, KindValidation},
	{chat.ErrNoParticipants, KindValidation},
	{chat.ErrInvalidParticipant, KindValidation},
}

// KindOf maps err to its kind. Anything unrecognised is a store failure.
func KindOf(err error) Kind {
	for _, dk := range domainKinds {
		if errors.Is(err, dk.err) {
			return dk.kind
		}
	}
	return KindTransientStore
}

// Code is the short error code sent to websocket clients.
func (k Kind) Code() string {
	switch k {
	case KindAuthentication:
		return "unauthenticated"
	case KindAuthorization:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "invalid"
	default:
		return "internal"
	}
}

// HTTPStatus is the REST status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the error text safe to hand to a client. Store failures
// never leak driver details.
func PublicMessage(err error) string {
	if KindOf(err) == KindTransientStore {
		return "internal error"
	}
	return err.Error()
}

// storeErr passes domain errors through and wraps everything else as ErrPersistence.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindTransientStore || errors.Is(err, ErrPersistence) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
