package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"supportchat/internal/domain/entity"
	"supportchat/pkg/errors"
)

func TestCanSendMessageGatesTerminalChats(t *testing.T) {
	assert.NoError(t, CanSendMessage(entity.Chat{ID: 1, Status: entity.StatusOpen}))
	assert.NoError(t, CanSendMessage(entity.Chat{ID: 1, Status: entity.StatusClaimed}))

	err := CanSendMessage(entity.Chat{ID: 1, Status: entity.StatusSolved})
	assert.Equal(t, "BAD_REQUEST", errors.Code(err))
	assert.Error(t, CanSendMessage(entity.Chat{ID: 1, Status: entity.StatusClosed}))
}

func TestValidateOutgoing(t *testing.T) {
	assert.Error(t, ValidateOutgoing("", ""))
	assert.Error(t, ValidateOutgoing("   ", ""))
	assert.NoError(t, ValidateOutgoing("hello", ""))
	assert.NoError(t, ValidateOutgoing("", "/tmp/receipt.png"))
}

func TestCanClaim(t *testing.T) {
	assert.NoError(t, CanClaim(entity.Chat{ID: 1, Status: entity.StatusOpen}))

	err := CanClaim(entity.Chat{ID: 1, Status: entity.StatusClaimed, ClaimedBy: "admin-2"})
	assert.Equal(t, "CONFLICT", errors.Code(err))

	err = CanClaim(entity.Chat{ID: 1, Status: entity.StatusClosed})
	assert.Equal(t, "BAD_REQUEST", errors.Code(err))
}

func TestCanResolveRequiresClaim(t *testing.T) {
	chat := entity.Chat{ID: 1, Status: entity.StatusClaimed, ClaimedBy: "admin-1"}
	assert.NoError(t, CanResolve(chat, "admin-1"))

	err := CanResolve(chat, "admin-2")
	assert.Equal(t, "FORBIDDEN", errors.Code(err))

	err = CanResolve(entity.Chat{ID: 1, Status: entity.StatusSolved, ClaimedBy: "admin-1"}, "admin-1")
	assert.Equal(t, "BAD_REQUEST", errors.Code(err))
}

func TestCanSubmitFeedbackOnlyAfterResolution(t *testing.T) {
	assert.Error(t, CanSubmitFeedback(entity.Chat{ID: 1, Status: entity.StatusOpen}))
	assert.Error(t, CanSubmitFeedback(entity.Chat{ID: 1, Status: entity.StatusClaimed}))
	assert.NoError(t, CanSubmitFeedback(entity.Chat{ID: 1, Status: entity.StatusSolved}))
	assert.NoError(t, CanSubmitFeedback(entity.Chat{ID: 1, Status: entity.StatusClosed}))
}

func TestValidateFeedback(t *testing.T) {
	assert.Error(t, ValidateFeedback(0, ""))
	assert.Error(t, ValidateFeedback(6, ""))
	assert.NoError(t, ValidateFeedback(1, ""))
	assert.NoError(t, ValidateFeedback(5, "cepat dan ramah"))
}
