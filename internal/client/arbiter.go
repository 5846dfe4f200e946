package client

import (
	"context"

	ws "supportchat/internal/infrastructure/websocket"
	"supportchat/pkg/errors"
	"supportchat/pkg/logger"
)

// ClaimArbiter mediates exclusive-assignment attempts against the
// backend's single-winner claim. The local view is updated from the
// authoritative response on success; on any rejection the session is
// resynchronized so the loser converges on the winner's state instead
// of keeping an optimistic guess.
type ClaimArbiter struct {
	fetcher   *Fetcher
	principal Principal
}

func NewClaimArbiter(fetcher *Fetcher, principal Principal) *ClaimArbiter {
	return &ClaimArbiter{fetcher: fetcher, principal: principal}
}

// RequestClaim attempts to claim the session's chat for the calling
// agent. The returned error preserves the backend's rejection code, so
// a caller can distinguish "lost the race" from a transport failure.
func (a *ClaimArbiter) RequestClaim(ctx context.Context, session *Session) error {
	if !a.principal.IsAdmin() {
		return errors.Forbidden("Only admins can claim chats", nil)
	}
	if err := CanClaim(session.Chat()); err != nil {
		return err
	}

	chat, err := a.fetcher.ClaimChat(ctx, session.ChatID())
	if err != nil {
		switch errors.Code(err) {
		case "CONFLICT", "FORBIDDEN", "BAD_REQUEST", "NOT_FOUND":
			// Another agent won, or the chat moved on. Converge on
			// whatever the backend now holds.
			if rerr := a.Reconcile(ctx, session); rerr != nil {
				logger.Warn("Failed to reconcile chat %s after claim rejection: %v", session.ChatID(), rerr)
			}
		}
		return err
	}

	session.ReplaceChat(*chat)
	return nil
}

// ObserveUpdate handles a chat-updated broadcast. The payload carries
// no claimant, so the effect is ambiguous without a refetch; the
// canonical record is pulled and swapped in. Updates for other chats
// are ignored.
func (a *ClaimArbiter) ObserveUpdate(ctx context.Context, session *Session, p ws.ChatUpdatedPayload) error {
	if p.ChatID != session.ChatID() {
		return nil
	}
	return a.Reconcile(ctx, session)
}

// Reconcile refetches the canonical chat record and replaces the local
// copy.
func (a *ClaimArbiter) Reconcile(ctx context.Context, session *Session) error {
	chat, err := a.fetcher.CanonicalChat(ctx, a.principal, session.ChatID())
	if err != nil {
		return err
	}
	session.ReplaceChat(*chat)
	return nil
}
