package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatIDAcceptsNumberAndString(t *testing.T) {
	// Older clients sent chat ids as strings; both wire forms decode
	// to the same canonical integer.
	var fromNumber, fromString ChatID
	require.NoError(t, json.Unmarshal([]byte(`42`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`"42"`), &fromString))
	assert.Equal(t, fromNumber, fromString)
	assert.Equal(t, ChatID(42), fromNumber)
}

func TestChatIDNullAndEmpty(t *testing.T) {
	var id ChatID
	require.NoError(t, json.Unmarshal([]byte(`null`), &id))
	assert.Equal(t, ChatID(0), id)

	id = 7
	require.NoError(t, json.Unmarshal([]byte(`""`), &id))
	assert.Equal(t, ChatID(0), id)
}

func TestChatIDRejectsGarbage(t *testing.T) {
	var id ChatID
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &id))
}

func TestChatIDInsidePayload(t *testing.T) {
	var payload struct {
		ChatID ChatID `json:"chatId"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"chatId":"123"}`), &payload))
	assert.Equal(t, ChatID(123), payload.ChatID)
}

func TestChatTerminalStates(t *testing.T) {
	assert.False(t, (&Chat{Status: StatusOpen}).IsTerminal())
	assert.False(t, (&Chat{Status: StatusClaimed}).IsTerminal())
	assert.True(t, (&Chat{Status: StatusSolved}).IsTerminal())
	assert.True(t, (&Chat{Status: StatusClosed}).IsTerminal())
}

func TestChatIsClaimedBy(t *testing.T) {
	chat := &Chat{Status: StatusClaimed, ClaimedBy: "admin-1"}
	assert.True(t, chat.IsClaimedBy("admin-1"))
	assert.False(t, chat.IsClaimedBy("admin-2"))
	assert.False(t, (&Chat{}).IsClaimedBy(""))
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusOpen, StatusClaimed, StatusSolved, StatusClosed} {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("pending"))
	assert.False(t, ValidStatus(""))
}
