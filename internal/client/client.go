// Package client is the chat synchronization engine embedded in the
// terminal frontends. It merges the two delivery paths (REST pulls and
// push-channel broadcasts) into one deduplicated, stably ordered view
// per chat, arbitrates claim attempts, tracks chat-scoped presence and
// gates lifecycle actions locally before they reach the backend.
package client

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"supportchat/internal/domain/entity"
	ws "supportchat/internal/infrastructure/websocket"
	"supportchat/pkg/errors"
	"supportchat/pkg/logger"
)

// Config wires one engine instance.
type Config struct {
	BaseURL   string // REST base, e.g. http://localhost:5000
	SocketURL string // push-channel base; defaults to BaseURL
	Token     string // bearer token; empty selects guest identity
	StateDir  string // where the guest session token persists

	// TypingExpiry clears stale typing flags. 0 selects the default,
	// a negative value disables expiry.
	TypingExpiry time.Duration

	MaxAttachmentSize int64
	HTTPClient        *http.Client
}

// EngineEvents are the UI-facing notifications. All callbacks may fire
// from background goroutines.
type EngineEvents struct {
	MessageReceived func(entity.Message)
	ChatChanged     func(entity.Chat)
	PresenceChanged func(PresenceState)
	RosterChanged   func()
	Error           func(error)
}

// Engine is the client facade. One engine serves one principal and at
// most one active chat view at a time, plus the roster for list views.
type Engine struct {
	cfg       Config
	events    EngineEvents
	fetcher   *Fetcher
	arbiter   *ClaimArbiter
	resolver  AttachmentResolver
	roster    *Roster
	channel   *Channel
	principal Principal

	mu      sync.Mutex
	session *Session
	tracker *PresenceTracker
	gen     uint64
}

func NewEngine(cfg Config, events EngineEvents) (*Engine, error) {
	if cfg.BaseURL == "" {
		return nil, errors.BadRequest("BaseURL is required", nil)
	}
	if cfg.SocketURL == "" {
		cfg.SocketURL = cfg.BaseURL
	}

	principal, err := ResolvePrincipal(cfg.Token, cfg.StateDir)
	if err != nil {
		return nil, err
	}

	fetcher := NewFetcher(cfg.BaseURL, principal.Token, cfg.HTTPClient)
	return &Engine{
		cfg:       cfg,
		events:    events,
		fetcher:   fetcher,
		arbiter:   NewClaimArbiter(fetcher, principal),
		resolver:  NewFileAttachmentResolver(cfg.MaxAttachmentSize),
		roster:    NewRoster(),
		principal: principal,
	}, nil
}

func (e *Engine) Principal() Principal {
	return e.principal
}

func (e *Engine) Fetcher() *Fetcher {
	return e.fetcher
}

func (e *Engine) Roster() *Roster {
	return e.roster
}

// Connect dials the push channel. The engine keeps working without it,
// degraded to pull-only; callers decide whether a dial failure is
// fatal.
func (e *Engine) Connect(ctx context.Context) error {
	ch, err := NewChannel(e.cfg.SocketURL, e.principal.Token, ChannelEvents{
		NewMessage:  e.handleNewMessage,
		ChatUpdated: e.handleChatUpdated,
		Typing:      e.handleTyping,
		AdminStatus: e.handleAdminStatus,
		Disconnect:  e.handleDisconnect,
	})
	if err != nil {
		return err
	}
	if err := ch.Dial(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	e.channel = ch
	session := e.session
	e.mu.Unlock()

	// Re-join the active room after a (re)connect.
	if session != nil {
		if err := ch.JoinChat(session.ChatID()); err != nil {
			logger.Warn("Failed to join chat %s: %v", session.ChatID(), err)
		}
	}
	return nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	ch := e.channel
	e.channel = nil
	tracker := e.tracker
	e.mu.Unlock()

	if tracker != nil {
		tracker.Stop()
	}
	if ch != nil {
		return ch.Close()
	}
	return nil
}

// OpenChat makes chatID the active view: the previous room is left,
// the new one joined, and the canonical snapshot fetched and merged.
// A fetch still in flight for a previously active chat is discarded
// when it lands.
func (e *Engine) OpenChat(ctx context.Context, chatID entity.ChatID) (*Session, error) {
	e.mu.Lock()
	prev := e.session
	prevTracker := e.tracker
	gen := atomic.AddUint64(&e.gen, 1)
	session := NewSession(entity.Chat{ID: chatID})
	e.session = session
	e.tracker = NewPresenceTracker(chatID, e.cfg.TypingExpiry, e.events.PresenceChanged)
	ch := e.channel
	e.mu.Unlock()

	if prevTracker != nil {
		prevTracker.Stop()
	}
	if ch != nil {
		if prev != nil && prev.ChatID() != chatID {
			if err := ch.LeaveChat(prev.ChatID()); err != nil {
				logger.Warn("Failed to leave chat %s: %v", prev.ChatID(), err)
			}
		}
		if err := ch.JoinChat(chatID); err != nil {
			logger.Warn("Failed to join chat %s: %v", chatID, err)
		}
	}

	if err := e.refreshSession(ctx, gen); err != nil {
		return nil, err
	}
	return session, nil
}

// Refresh refetches the active chat's snapshot and merges it.
func (e *Engine) Refresh(ctx context.Context) error {
	gen := atomic.LoadUint64(&e.gen)
	return e.refreshSession(ctx, gen)
}

func (e *Engine) refreshSession(ctx context.Context, gen uint64) error {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()
	if session == nil {
		return errors.BadRequest("No active chat", nil)
	}
	chatID := session.ChatID()

	chat, err := e.fetcher.CanonicalChat(ctx, e.principal, chatID)
	if err != nil {
		return err
	}
	msgs, err := e.fetcher.Messages(ctx, chatID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	stale := atomic.LoadUint64(&e.gen) != gen || e.session != session
	tracker := e.tracker
	e.mu.Unlock()
	if stale {
		// The view moved on while the fetch was in flight.
		return nil
	}

	session.ReplaceSnapshot(*chat, msgs)
	for _, msg := range session.Messages() {
		tracker.ObserveMessage(msg)
	}
	e.notifyChat(session.Chat())
	return nil
}

// Session returns the active chat view, or nil.
func (e *Engine) Session() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Presence returns the active chat's presence snapshot.
func (e *Engine) Presence() PresenceState {
	e.mu.Lock()
	tracker := e.tracker
	e.mu.Unlock()
	if tracker == nil {
		return PresenceState{}
	}
	return tracker.State()
}

// CreateChat opens a new chat under the given category and makes it
// the active view. For guests the backend-minted session token is
// adopted and persisted.
func (e *Engine) CreateChat(ctx context.Context, category string) (*Session, error) {
	var created *CreatedChat
	var err error
	if e.principal.IsGuest() {
		created, err = e.fetcher.CreateGuestChat(ctx, category)
	} else {
		created, err = e.fetcher.CreateChat(ctx, category)
	}
	if err != nil {
		return nil, err
	}

	if e.principal.IsGuest() && created.SessionID != "" {
		e.principal.SessionID = created.SessionID
		e.arbiter.principal.SessionID = created.SessionID
		if err := SaveSessionID(e.cfg.StateDir, created.SessionID); err != nil {
			logger.Warn("Failed to persist session token: %v", err)
		}
	}

	return e.OpenChat(ctx, created.ChatID)
}

// ResumeChat finds the principal's existing chat and opens it: the
// guest session chat, or the most recent history entry. Returns
// NOT_FOUND when there is nothing to resume.
func (e *Engine) ResumeChat(ctx context.Context) (*Session, error) {
	if e.principal.IsGuest() {
		chat, err := e.fetcher.SessionChat(ctx, e.principal.SessionID)
		if err != nil {
			return nil, err
		}
		return e.OpenChat(ctx, chat.ID)
	}

	chats, err := e.fetcher.History(ctx)
	if err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return nil, errors.NotFound("Chat", nil)
	}
	return e.OpenChat(ctx, chats[0].ID)
}

// SendMessage validates and sends into the active chat. The REST
// response is merged immediately; the matching broadcast dedupes
// against it by message ID.
func (e *Engine) SendMessage(ctx context.Context, content, attachmentPath string) (*entity.Message, error) {
	e.mu.Lock()
	session := e.session
	tracker := e.tracker
	e.mu.Unlock()
	if session == nil {
		return nil, errors.BadRequest("No active chat", nil)
	}

	if err := ValidateOutgoing(content, attachmentPath); err != nil {
		return nil, err
	}
	if err := CanSendMessage(session.Chat()); err != nil {
		return nil, err
	}

	var attachment *Attachment
	if attachmentPath != "" {
		var err error
		attachment, err = e.resolver.Resolve(attachmentPath)
		if err != nil {
			return nil, err
		}
	}

	req := SendRequest{
		ChatID:     session.ChatID(),
		Content:    strings.TrimSpace(content),
		Attachment: attachment,
		AsAdmin:    e.principal.IsAdmin(),
	}
	if e.principal.IsGuest() {
		req.SessionID = e.principal.SessionID
	}

	msg, err := e.fetcher.SendMessage(ctx, req)
	if err != nil {
		return nil, err
	}

	if session.ApplyMessage(*msg) {
		tracker.ObserveMessage(*msg)
		e.notifyChat(session.Chat())
	}
	return msg, nil
}

// SendTyping pushes the ephemeral typing flag for the active chat.
// Failures are swallowed: typing is advisory.
func (e *Engine) SendTyping(isTyping bool) {
	e.mu.Lock()
	session := e.session
	ch := e.channel
	e.mu.Unlock()
	if session == nil || ch == nil {
		return
	}
	if err := ch.SendTyping(session.ChatID(), isTyping, e.principal.Name); err != nil {
		logger.Debug("Failed to send typing frame: %v", err)
	}
}

// Claim requests exclusive assignment of the active chat.
func (e *Engine) Claim(ctx context.Context) error {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()
	if session == nil {
		return errors.BadRequest("No active chat", nil)
	}

	err := e.arbiter.RequestClaim(ctx, session)
	e.notifyChat(session.Chat())
	return err
}

// MarkSolved transitions the active chat to solved.
func (e *Engine) MarkSolved(ctx context.Context) error {
	return e.resolve(ctx, e.fetcher.SolveChat)
}

// MarkClosed closes the active chat.
func (e *Engine) MarkClosed(ctx context.Context) error {
	return e.resolve(ctx, e.fetcher.CloseChat)
}

func (e *Engine) resolve(ctx context.Context, apply func(context.Context, entity.ChatID) (*entity.Chat, error)) error {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()
	if session == nil {
		return errors.BadRequest("No active chat", nil)
	}
	if err := CanResolve(session.Chat(), e.principal.ID); err != nil {
		return err
	}

	chat, err := apply(ctx, session.ChatID())
	if err != nil {
		return err
	}
	session.ReplaceChat(*chat)
	e.notifyChat(session.Chat())
	return nil
}

// SubmitFeedback rates the active chat once it is resolved.
func (e *Engine) SubmitFeedback(ctx context.Context, rating int, comment string) error {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()
	if session == nil {
		return errors.BadRequest("No active chat", nil)
	}
	if err := ValidateFeedback(rating, comment); err != nil {
		return err
	}
	if err := CanSubmitFeedback(session.Chat()); err != nil {
		return err
	}

	sessionID := ""
	if e.principal.IsGuest() {
		sessionID = e.principal.SessionID
	}
	return e.fetcher.SubmitFeedback(ctx, session.ChatID(), rating, comment, sessionID)
}

// RefreshRoster refetches the chat list appropriate to the principal.
func (e *Engine) RefreshRoster(ctx context.Context, filter ChatListFilter) error {
	var chats []entity.Chat
	var err error
	if e.principal.IsAdmin() {
		chats, err = e.fetcher.AdminChats(ctx, filter)
	} else {
		chats, err = e.fetcher.History(ctx)
	}
	if err != nil {
		return err
	}
	e.roster.Replace(chats)
	e.notifyRoster()
	return nil
}

func (e *Engine) handleNewMessage(msg entity.Message) {
	e.mu.Lock()
	session := e.session
	tracker := e.tracker
	e.mu.Unlock()

	if session != nil && session.ApplyMessage(msg) {
		tracker.ObserveMessage(msg)
		if e.events.MessageReceived != nil {
			e.events.MessageReceived(msg)
		}
		e.notifyChat(session.Chat())
	}
	if e.roster.ApplyPreview(msg) {
		e.notifyRoster()
	}
}

func (e *Engine) handleChatUpdated(p ws.ChatUpdatedPayload) {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()
	if session == nil || p.ChatID != session.ChatID() {
		e.notifyRoster()
		return
	}

	// Apply the status carried on the event right away so the view
	// reacts before the refetch lands.
	if entity.ValidStatus(p.Status) {
		session.UpdateChatFields(ChatPatch{Status: &p.Status})
		e.notifyChat(session.Chat())
	}

	// The payload is a hint, not state; refetch off the read loop.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.arbiter.ObserveUpdate(ctx, session, p); err != nil {
			e.notifyError(err)
			return
		}
		e.notifyChat(session.Chat())
		e.notifyRoster()
	}()
}

func (e *Engine) handleTyping(p ws.TypingPayload) {
	e.mu.Lock()
	tracker := e.tracker
	e.mu.Unlock()
	if tracker != nil {
		tracker.ObserveTyping(p)
	}
}

func (e *Engine) handleAdminStatus(p ws.AdminStatusPayload) {
	e.mu.Lock()
	tracker := e.tracker
	e.mu.Unlock()
	if tracker != nil {
		tracker.ObserveAdminStatus(p)
	}
}

func (e *Engine) handleDisconnect(err error) {
	logger.Warn("Push channel disconnected: %v", err)
	e.notifyError(errors.Internal("Push channel disconnected", err))
}

func (e *Engine) notifyChat(chat entity.Chat) {
	if e.events.ChatChanged != nil {
		e.events.ChatChanged(chat)
	}
}

func (e *Engine) notifyRoster() {
	if e.events.RosterChanged != nil {
		e.events.RosterChanged()
	}
}

func (e *Engine) notifyError(err error) {
	if e.events.Error != nil {
		e.events.Error(err)
	}
}
