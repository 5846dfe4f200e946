package usecase

import (
	"context"

	"github.com/google/uuid"

	"supportchat/internal/domain/entity"
	"supportchat/internal/domain/repository"
	"supportchat/internal/infrastructure/ratelimit"
	ws "supportchat/internal/infrastructure/websocket"
	"supportchat/pkg/errors"
	"supportchat/pkg/logger"
)

type ChatUseCase struct {
	chatRepo     repository.ChatRepository
	messageRepo  repository.MessageRepository
	categoryRepo repository.CategoryRepository
	hub          *ws.Hub
	rateLimiter  *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	messageRepo repository.MessageRepository,
	categoryRepo repository.CategoryRepository,
	hub *ws.Hub,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:     chatRepo,
		messageRepo:  messageRepo,
		categoryRepo: categoryRepo,
		hub:          hub,
		rateLimiter:  rateLimiter,
	}
}

type CreateChatInput struct {
	Category string
	UserID   string
	UserName string
}

// CreateChat opens a new chat for an authenticated participant.
func (uc *ChatUseCase) CreateChat(ctx context.Context, input CreateChatInput) (*entity.Chat, error) {
	if allowed, waitTime := uc.rateLimiter.Allow(input.UserID, "create_chat"); !allowed {
		logger.Warn("CreateChat rate limited: user %s must wait %v", input.UserID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before creating another chat", waitTime)
	}
	if _, err := uc.categoryRepo.GetByName(ctx, input.Category); err != nil {
		return nil, errors.BadRequest("Unknown category", err)
	}

	chat := &entity.Chat{
		Category: input.Category,
		Status:   entity.StatusOpen,
		UserID:   input.UserID,
		UserName: input.UserName,
	}
	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}
	uc.seedGreeting(ctx, chat)

	logger.Info("Chat %s created by user %s (category %s)", chat.ID, input.UserID, input.Category)
	return chat, nil
}

const (
	greetingSender = "Admin Runtera"
	greetingText   = "Halo! Selamat datang di layanan bantuan Runtera. Ceritakan kendala kamu, tim kami akan segera merespons."
)

// seedGreeting plants the system welcome message in a fresh chat. Best
// effort: a chat without a greeting is still usable.
func (uc *ChatUseCase) seedGreeting(ctx context.Context, chat *entity.Chat) {
	greeting := &entity.Message{
		ChatID:     chat.ID,
		SenderType: entity.SenderSystem,
		SenderName: greetingSender,
		Content:    greetingText,
	}
	if err := uc.messageRepo.Create(ctx, greeting); err != nil {
		logger.Error("Failed to seed greeting for chat %s: %v", chat.ID, err)
		return
	}

	chat.LastMessage = greeting.Content
	chat.MessageCount = 1
	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		logger.Error("Failed to update chat %s after greeting: %v", chat.ID, err)
	}
}

// CreateGuestChat opens a chat for an unauthenticated participant and
// mints the durable session token that scopes all further guest access
// to it.
func (uc *ChatUseCase) CreateGuestChat(ctx context.Context, category string) (*entity.Chat, string, error) {
	if _, err := uc.categoryRepo.GetByName(ctx, category); err != nil {
		return nil, "", errors.BadRequest("Unknown category", err)
	}

	sessionID := "guest_" + uuid.New().String()
	chat := &entity.Chat{
		Category:  category,
		Status:    entity.StatusOpen,
		SessionID: sessionID,
		UserName:  "Guest",
	}
	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		return nil, "", err
	}
	uc.seedGreeting(ctx, chat)

	logger.Info("Chat %s created for guest session %s (category %s)", chat.ID, sessionID, category)
	return chat, sessionID, nil
}

// History lists an authenticated participant's prior chats.
func (uc *ChatUseCase) History(ctx context.Context, userID string) ([]*entity.Chat, error) {
	return uc.chatRepo.ListByUserID(ctx, userID)
}

// SessionChat resolves a guest session token to its most recent chat.
func (uc *ChatUseCase) SessionChat(ctx context.Context, sessionID string) (*entity.Chat, error) {
	chats, err := uc.chatRepo.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return nil, errors.NotFound("Chat", nil)
	}
	return chats[0], nil
}

// GetByID returns the canonical chat record.
func (uc *ChatUseCase) GetByID(ctx context.Context, id entity.ChatID) (*entity.Chat, error) {
	return uc.chatRepo.GetByID(ctx, id)
}

// AdminList is the agent-facing filtered chat list.
func (uc *ChatUseCase) AdminList(ctx context.Context, filter repository.ChatFilter) ([]*entity.Chat, error) {
	if filter.Status != "" && !entity.ValidStatus(filter.Status) {
		return nil, errors.BadRequest("Unknown status filter", nil)
	}
	return uc.chatRepo.List(ctx, filter)
}

// Claim assigns the chat exclusively to the calling agent. The
// repository arbitrates concurrent attempts; exactly one wins and the
// rest receive a conflict carrying the winner's state.
func (uc *ChatUseCase) Claim(ctx context.Context, chatID entity.ChatID, adminID, adminName string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.Claim(ctx, chatID, adminID, adminName)
	if err != nil {
		return chat, err
	}

	uc.hub.BroadcastToChat(chatID, ws.EventChatUpdated, ws.ChatUpdatedPayload{
		ChatID: chatID,
		Status: chat.Status,
	})
	uc.hub.BroadcastToChat(chatID, ws.EventAdminStatus, ws.AdminStatusPayload{
		ChatID:    chatID,
		AdminName: adminName,
	})

	logger.Info("Chat %s claimed by admin %s", chatID, adminID)
	return chat, nil
}

// Solve marks the chat solved. Only the current claimant may do so.
func (uc *ChatUseCase) Solve(ctx context.Context, chatID entity.ChatID, adminID string) (*entity.Chat, error) {
	return uc.transition(ctx, chatID, adminID, entity.StatusSolved)
}

// Close closes the chat. Only the current claimant may do so.
func (uc *ChatUseCase) Close(ctx context.Context, chatID entity.ChatID, adminID string) (*entity.Chat, error) {
	return uc.transition(ctx, chatID, adminID, entity.StatusClosed)
}

func (uc *ChatUseCase) transition(ctx context.Context, chatID entity.ChatID, adminID, status string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.IsTerminal() {
		return nil, errors.BadRequest("Chat is no longer active", nil)
	}
	if !chat.IsClaimedBy(adminID) {
		return nil, errors.Forbidden("Only the claiming admin can update this chat", nil)
	}

	chat.Status = status
	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		return nil, err
	}

	uc.hub.BroadcastToChat(chatID, ws.EventChatUpdated, ws.ChatUpdatedPayload{
		ChatID: chatID,
		Status: status,
	})

	logger.Info("Chat %s moved to %s by admin %s", chatID, status, adminID)
	return chat, nil
}

// AdminStats aggregates chat counts per claiming agent.
func (uc *ChatUseCase) AdminStats(ctx context.Context) ([]entity.AdminStats, error) {
	chats, err := uc.chatRepo.List(ctx, repository.ChatFilter{})
	if err != nil {
		return nil, err
	}

	byAdmin := make(map[string]*entity.AdminStats)
	order := make([]string, 0)
	for _, chat := range chats {
		if chat.ClaimedBy == "" {
			continue
		}
		stats, ok := byAdmin[chat.ClaimedBy]
		if !ok {
			stats = &entity.AdminStats{AdminID: chat.ClaimedBy, Name: chat.AdminName}
			byAdmin[chat.ClaimedBy] = stats
			order = append(order, chat.ClaimedBy)
		}
		switch chat.Status {
		case entity.StatusSolved:
			stats.SolvedCount++
		case entity.StatusClosed:
			stats.ClosedCount++
		default:
			stats.ActiveCount++
		}
	}

	out := make([]entity.AdminStats, 0, len(order))
	for _, id := range order {
		out = append(out, *byAdmin[id])
	}
	return out, nil
}

// OverallStats is the superadmin aggregate view.
func (uc *ChatUseCase) OverallStats(ctx context.Context) (*entity.OverallStats, error) {
	chats, err := uc.chatRepo.List(ctx, repository.ChatFilter{})
	if err != nil {
		return nil, err
	}
	admins, err := uc.AdminStats(ctx)
	if err != nil {
		return nil, err
	}
	totalMessages, err := uc.messageRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &entity.OverallStats{
		TotalChats:    len(chats),
		TotalMessages: totalMessages,
		Admins:        admins,
	}
	for _, chat := range chats {
		switch chat.Status {
		case entity.StatusOpen:
			stats.OpenChats++
		case entity.StatusClaimed:
			stats.ClaimedChats++
		case entity.StatusSolved:
			stats.SolvedChats++
		case entity.StatusClosed:
			stats.ClosedChats++
		}
	}
	return stats, nil
}

// Categories lists the active service topics.
func (uc *ChatUseCase) Categories(ctx context.Context) ([]*entity.Category, error) {
	return uc.categoryRepo.ListActive(ctx)
}
