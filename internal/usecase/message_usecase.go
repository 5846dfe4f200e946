package usecase

import (
	"context"
	"io"
	"strings"

	"supportchat/internal/domain/entity"
	"supportchat/internal/domain/repository"
	"supportchat/internal/infrastructure/ratelimit"
	"supportchat/internal/infrastructure/storage"
	ws "supportchat/internal/infrastructure/websocket"
	"supportchat/pkg/errors"
	"supportchat/pkg/logger"
)

type MessageUseCase struct {
	chatRepo    repository.ChatRepository
	messageRepo repository.MessageRepository
	storage     *storage.LocalStorage
	hub         *ws.Hub
	rateLimiter *ratelimit.RateLimiter
}

func NewMessageUseCase(
	chatRepo repository.ChatRepository,
	messageRepo repository.MessageRepository,
	store *storage.LocalStorage,
	hub *ws.Hub,
) *MessageUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &MessageUseCase{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		storage:     store,
		hub:         hub,
		rateLimiter: rateLimiter,
	}
}

// Attachment is an incoming upload riding a message submission.
type Attachment struct {
	FileName string
	Size     int64
	Reader   io.Reader
}

type SendMessageInput struct {
	ChatID     entity.ChatID
	Content    string
	Attachment *Attachment
	SenderType string // entity.SenderUser or entity.SenderAdmin
	SenderID   string // uid for users/admins, session token for guests
	SenderName string
	SessionID  string // guest scope check, empty for authenticated senders
}

// Send validates, persists and broadcasts one message. The broadcast
// carries the persisted record, so every connected peer (including the
// sender) observes the same message identity the REST response
// returned.
func (uc *MessageUseCase) Send(ctx context.Context, input SendMessageInput) (*entity.Message, error) {
	input.Content = strings.TrimSpace(input.Content)
	if input.Content == "" && input.Attachment == nil {
		return nil, errors.BadRequest("Message must have content or an attachment", nil)
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}
	if chat.IsTerminal() {
		return nil, errors.BadRequest("Chat is no longer active", nil)
	}
	if err := uc.authorizeSender(chat, input); err != nil {
		return nil, err
	}

	if allowed, waitTime := uc.rateLimiter.Allow(input.SenderID, "send_message"); !allowed {
		logger.Warn("Send rate limited: sender %s must wait %v", input.SenderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	message := &entity.Message{
		ChatID:     input.ChatID,
		SenderType: input.SenderType,
		SenderName: input.SenderName,
		Content:    input.Content,
	}

	if input.Attachment != nil {
		stored, err := uc.storage.Save(ctx, input.Attachment.FileName, input.Attachment.Reader, input.Attachment.Size)
		if err != nil {
			return nil, err
		}
		message.FilePath = stored.Path
		message.FileName = stored.Name
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	// Denormalized preview on the chat record.
	chat.LastMessage = previewFor(message)
	chat.MessageCount++
	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		logger.Error("Failed to update chat preview for chat %s: %v", chat.ID, err)
	}

	uc.hub.BroadcastToChat(input.ChatID, ws.EventNewMessage, message)

	logger.Info("Message %s sent to chat %s by %s (%s)", message.ID, input.ChatID, input.SenderName, input.SenderType)
	return message, nil
}

func (uc *MessageUseCase) authorizeSender(chat *entity.Chat, input SendMessageInput) error {
	switch input.SenderType {
	case entity.SenderAdmin:
		if !chat.IsClaimedBy(input.SenderID) {
			return errors.Forbidden("Only the claiming admin can reply to this chat", nil)
		}
	case entity.SenderUser:
		if chat.SessionID != "" {
			if input.SessionID != chat.SessionID {
				return errors.Forbidden("Session does not own this chat", nil)
			}
		} else if chat.UserID != input.SenderID {
			return errors.Forbidden("User does not own this chat", nil)
		}
	default:
		return errors.BadRequest("Unknown sender type", nil)
	}
	return nil
}

// ListByChat returns the chat's ordered message history.
func (uc *MessageUseCase) ListByChat(ctx context.Context, chatID entity.ChatID) ([]*entity.Message, error) {
	if _, err := uc.chatRepo.GetByID(ctx, chatID); err != nil {
		return nil, err
	}
	return uc.messageRepo.ListByChat(ctx, chatID)
}

func previewFor(m *entity.Message) string {
	if m.Content != "" {
		return m.Content
	}
	return m.FileName
}
