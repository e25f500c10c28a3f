// Reply generation for the reference service
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/parleyhq/parley/pkg/db"
)

// Responder produces the assistant reply for a text conversation. The
// default implementation is deterministic and offline; deployments wanting
// a real model plug their own in.
type Responder interface {
	Reply(ctx context.Context, conv *db.Conversation, history []db.Message, prompt string) (string, error)
}

// EchoResponder answers with a canned acknowledgement of the prompt.
type EchoResponder struct{}

func (EchoResponder) Reply(_ context.Context, _ *db.Conversation, history []db.Message, prompt string) (string, error) {
	userTurns := 0
	for _, m := range history {
		if m.Role == db.RoleUser {
			userTurns++
		}
	}
	return fmt.Sprintf("You said: %s (turn %d)", strings.TrimSpace(prompt), userTurns), nil
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, conv *db.Conversation, history []db.Message, prompt string) (string, error)

func (f ResponderFunc) Reply(ctx context.Context, conv *db.Conversation, history []db.Message, prompt string) (string, error) {
	return f(ctx, conv, history, prompt)
}

// placeholderPNG is a 1x1 transparent PNG used as the generated image.
const placeholderPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// generateImage returns a data-URI-encoded image for an image-conversation
// prompt. The reference service does not call a real image backend.
func (s *ChatService) generateImage(_ context.Context, _ string) (string, error) {
	return "data:image/png;base64," + placeholderPNG, nil
}
