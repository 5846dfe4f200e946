package client

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"supportchat/internal/domain/entity"
	"supportchat/pkg/errors"
)

// Lifecycle gates. Every mutating call checks the locally known chat
// state before anything leaves the process; the backend re-checks and
// stays authoritative, these just give an immediate answer for states
// the client can already see are invalid.

// CanSendMessage rejects sends into a solved or closed chat.
func CanSendMessage(chat entity.Chat) error {
	if chat.IsTerminal() {
		return errors.BadRequest("Chat is no longer active", nil)
	}
	return nil
}

// ValidateOutgoing rejects a message that carries neither text nor an
// attachment.
func ValidateOutgoing(content, attachmentPath string) error {
	if strings.TrimSpace(content) == "" && attachmentPath == "" {
		return errors.BadRequest("Message must have content or an attachment", nil)
	}
	return nil
}

// CanClaim rejects a claim against a chat not currently open.
func CanClaim(chat entity.Chat) error {
	if chat.IsTerminal() {
		return errors.BadRequest("Chat is no longer active", nil)
	}
	if chat.Status == entity.StatusClaimed {
		return errors.Conflict("Chat is already claimed")
	}
	return nil
}

// CanResolve gates solve and close: the chat must still be live and
// the caller must hold the claim.
func CanResolve(chat entity.Chat, adminID string) error {
	if chat.IsTerminal() {
		return errors.BadRequest("Chat is no longer active", nil)
	}
	if !chat.IsClaimedBy(adminID) {
		return errors.Forbidden("Only the claiming admin can resolve this chat", nil)
	}
	return nil
}

// CanSubmitFeedback allows feedback only once the chat has reached a
// terminal state.
func CanSubmitFeedback(chat entity.Chat) error {
	if !chat.IsTerminal() {
		return errors.BadRequest("Feedback is only accepted after the chat is resolved", nil)
	}
	return nil
}

var validate = validator.New()

type feedbackInput struct {
	Rating  int    `validate:"required,min=1,max=5"`
	Comment string `validate:"max=1000"`
}

// ValidateFeedback bounds the rating and comment before any network
// call.
func ValidateFeedback(rating int, comment string) error {
	if err := validate.Struct(feedbackInput{Rating: rating, Comment: comment}); err != nil {
		return errors.BadRequest("Rating must be between 1 and 5", err)
	}
	return nil
}
