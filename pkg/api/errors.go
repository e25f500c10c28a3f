package api

import (
	"errors"

	"github.com/parleyhq/parley/pkg/models"
)

// RequestError is the normalized failure of any remote call: transport
// failures, 4xx/5xx responses, and responses that could not be parsed all
// end up here with a single human-readable message. StatusCode is zero for
// transport failures. The send endpoints may attach a canonical snapshot of
// the affected conversation for failure reconciliation.
type RequestError struct {
	StatusCode   int
	Message      string
	Conversation *models.ConversationDetail
}

func (e *RequestError) Error() string {
	return e.Message
}

// ErrorMessage extracts the normalized message from any error returned by
// the client, falling back to a generic message for unknown errors.
func ErrorMessage(err error) string {
	var re *RequestError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if err != nil {
		return err.Error()
	}
	return "something went wrong"
}

// ConversationSnapshot returns the conversation snapshot attached to a
// failed send, if the server provided one.
func ConversationSnapshot(err error) *models.ConversationDetail {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Conversation
	}
	return nil
}
