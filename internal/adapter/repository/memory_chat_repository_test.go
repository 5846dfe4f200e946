package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportchat/internal/domain/entity"
	"supportchat/internal/domain/repository"
	"supportchat/pkg/errors"
)

func openChat(t *testing.T, repo repository.ChatRepository, category string) *entity.Chat {
	t.Helper()
	chat := &entity.Chat{Category: category, Status: entity.StatusOpen, UserName: "Guest"}
	require.NoError(t, repo.Create(context.Background(), chat))
	return chat
}

func TestChatRepositoryCreateAssignsSequentialIDs(t *testing.T) {
	repo := NewMemoryChatRepository()
	first := openChat(t, repo, "racepack")
	second := openChat(t, repo, "akun")

	assert.Equal(t, entity.ChatID(1), first.ID)
	assert.Equal(t, entity.ChatID(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestChatRepositoryGetReturnsClone(t *testing.T) {
	repo := NewMemoryChatRepository()
	chat := openChat(t, repo, "racepack")

	got, err := repo.GetByID(context.Background(), chat.ID)
	require.NoError(t, err)
	got.Status = entity.StatusClosed

	again, err := repo.GetByID(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOpen, again.Status)
}

func TestChatRepositoryClaimSingleWinner(t *testing.T) {
	repo := NewMemoryChatRepository()
	chat := openChat(t, repo, "racepack")

	const contenders = 32
	var wg sync.WaitGroup
	winners := make(chan string, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := repo.Claim(context.Background(), chat.ID, id, "Agent "+id); err == nil {
				winners <- id
			}
		}(fmt.Sprintf("admin-%d", i))
	}
	wg.Wait()
	close(winners)

	var won []string
	for id := range winners {
		won = append(won, id)
	}
	require.Len(t, won, 1, "claim must have exactly one winner")

	stored, err := repo.GetByID(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusClaimed, stored.Status)
	assert.Equal(t, won[0], stored.ClaimedBy)
}

func TestChatRepositoryClaimConflictCarriesState(t *testing.T) {
	repo := NewMemoryChatRepository()
	chat := openChat(t, repo, "racepack")

	_, err := repo.Claim(context.Background(), chat.ID, "admin-1", "Agent One")
	require.NoError(t, err)

	got, err := repo.Claim(context.Background(), chat.ID, "admin-2", "Agent Two")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", errors.Code(err))
	require.NotNil(t, got, "loser needs the authoritative state to reconcile")
	assert.Equal(t, "admin-1", got.ClaimedBy)
	assert.Equal(t, "Agent One", got.AdminName)
}

func TestChatRepositoryClaimUnknownChat(t *testing.T) {
	repo := NewMemoryChatRepository()
	_, err := repo.Claim(context.Background(), 99, "admin-1", "Agent One")
	assert.Equal(t, "NOT_FOUND", errors.Code(err))
}

func TestChatRepositoryListFilters(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	a := openChat(t, repo, "racepack")
	openChat(t, repo, "akun")
	c := openChat(t, repo, "racepack")

	_, err := repo.Claim(ctx, a.ID, "admin-1", "Agent One")
	require.NoError(t, err)

	byCategory, err := repo.List(ctx, repository.ChatFilter{Category: "racepack"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	byStatus, err := repo.List(ctx, repository.ChatFilter{Status: entity.StatusOpen})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	byAdmin, err := repo.List(ctx, repository.ChatFilter{AdminID: "admin-1"})
	require.NoError(t, err)
	require.Len(t, byAdmin, 1)
	assert.Equal(t, a.ID, byAdmin[0].ID)

	both, err := repo.List(ctx, repository.ChatFilter{Category: "racepack", Status: entity.StatusOpen})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, c.ID, both[0].ID)
}

func TestChatRepositoryListNewestFirst(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	first := openChat(t, repo, "racepack")
	second := openChat(t, repo, "racepack")

	// Touch the older chat so it floats back up.
	time.Sleep(2 * time.Millisecond)
	stored, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	stored.LastMessage = "bump"
	require.NoError(t, repo.Update(ctx, stored))

	chats, err := repo.List(ctx, repository.ChatFilter{})
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, first.ID, chats[0].ID)
	assert.Equal(t, second.ID, chats[1].ID)
}

func TestChatRepositorySessionScope(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	chat := &entity.Chat{Status: entity.StatusOpen, SessionID: "guest_abc", UserName: "Guest"}
	require.NoError(t, repo.Create(ctx, chat))

	chats, err := repo.ListBySessionID(ctx, "guest_abc")
	require.NoError(t, err)
	require.Len(t, chats, 1)

	none, err := repo.ListBySessionID(ctx, "guest_other")
	require.NoError(t, err)
	assert.Empty(t, none)
}
