package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"supportchat/internal/domain/entity"
	"supportchat/pkg/errors"
)

// Fetcher is the pull side of the engine: a typed REST client over the
// backend's JSON envelope. It carries the principal's bearer token and
// turns error envelopes back into AppErrors with their original codes.
type Fetcher struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewFetcher(baseURL, token string, httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreatedChat is the creation response: the new chat plus, for guests,
// the backend-minted session token the caller must persist.
type CreatedChat struct {
	ChatID    entity.ChatID `json:"chatId"`
	SessionID string        `json:"sessionId"`
	Chat      *entity.Chat  `json:"chat"`
}

func (f *Fetcher) CreateChat(ctx context.Context, category string) (*CreatedChat, error) {
	var out CreatedChat
	if err := f.postJSON(ctx, "/chats", map[string]string{"category": category}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *Fetcher) CreateGuestChat(ctx context.Context, category string) (*CreatedChat, error) {
	var out CreatedChat
	if err := f.postJSON(ctx, "/chats/guest", map[string]string{"category": category}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *Fetcher) History(ctx context.Context) ([]entity.Chat, error) {
	var out []entity.Chat
	if err := f.getJSON(ctx, "/chats/history", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *Fetcher) SessionChat(ctx context.Context, sessionID string) (*entity.Chat, error) {
	var out entity.Chat
	if err := f.getJSON(ctx, "/chats/session/"+url.PathEscape(sessionID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatListFilter narrows the agent chat list. Empty fields match all.
type ChatListFilter struct {
	Status   string
	Category string
	AdminID  string
}

func (f *Fetcher) AdminChats(ctx context.Context, filter ChatListFilter) ([]entity.Chat, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.AdminID != "" {
		q.Set("adminId", filter.AdminID)
	}
	path := "/chats/admin/all"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []entity.Chat
	if err := f.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CanonicalChat fetches the authoritative record for one chat through
// whichever list surface the principal may read. Used wherever a push
// event is ambiguous without a refetch.
func (f *Fetcher) CanonicalChat(ctx context.Context, p Principal, chatID entity.ChatID) (*entity.Chat, error) {
	if p.IsGuest() {
		chat, err := f.SessionChat(ctx, p.SessionID)
		if err != nil {
			return nil, err
		}
		if chat.ID != chatID {
			return nil, errors.NotFound("Chat", nil)
		}
		return chat, nil
	}

	var chats []entity.Chat
	var err error
	if p.IsAdmin() {
		chats, err = f.AdminChats(ctx, ChatListFilter{})
	} else {
		chats, err = f.History(ctx)
	}
	if err != nil {
		return nil, err
	}
	for i := range chats {
		if chats[i].ID == chatID {
			return &chats[i], nil
		}
	}
	return nil, errors.NotFound("Chat", nil)
}

func (f *Fetcher) ClaimChat(ctx context.Context, chatID entity.ChatID) (*entity.Chat, error) {
	return f.transition(ctx, chatID, "claim")
}

func (f *Fetcher) SolveChat(ctx context.Context, chatID entity.ChatID) (*entity.Chat, error) {
	return f.transition(ctx, chatID, "solve")
}

func (f *Fetcher) CloseChat(ctx context.Context, chatID entity.ChatID) (*entity.Chat, error) {
	return f.transition(ctx, chatID, "close")
}

func (f *Fetcher) transition(ctx context.Context, chatID entity.ChatID, action string) (*entity.Chat, error) {
	var out entity.Chat
	path := fmt.Sprintf("/chats/%d/%s", chatID, action)
	if err := f.postJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *Fetcher) Messages(ctx context.Context, chatID entity.ChatID) ([]entity.Message, error) {
	var out []entity.Message
	if err := f.getJSON(ctx, fmt.Sprintf("/messages/chat/%d", chatID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendRequest carries one outbound message. The attachment, when set,
// is consumed and closed by the send.
type SendRequest struct {
	ChatID     entity.ChatID
	Content    string
	Attachment *Attachment
	SessionID  string
	AsAdmin    bool
}

func (f *Fetcher) SendMessage(ctx context.Context, req SendRequest) (*entity.Message, error) {
	path := "/messages"
	switch {
	case req.AsAdmin:
		path = "/messages/admin"
	case req.SessionID != "":
		path = "/messages/guest"
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if err := w.WriteField("chatId", fmt.Sprintf("%d", req.ChatID)); err != nil {
		return nil, errors.Internal("Failed to encode message", err)
	}
	if req.Content != "" {
		if err := w.WriteField("content", req.Content); err != nil {
			return nil, errors.Internal("Failed to encode message", err)
		}
	}
	if req.SessionID != "" {
		if err := w.WriteField("sessionId", req.SessionID); err != nil {
			return nil, errors.Internal("Failed to encode message", err)
		}
	}
	if req.Attachment != nil {
		defer req.Attachment.Close()
		part, err := w.CreateFormFile("image", req.Attachment.FileName)
		if err != nil {
			return nil, errors.Internal("Failed to encode attachment", err)
		}
		if _, err := io.Copy(part, req.Attachment.Reader); err != nil {
			return nil, errors.Internal("Failed to read attachment", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.Internal("Failed to encode message", err)
	}

	var out entity.Message
	if err := f.do(ctx, http.MethodPost, path, body, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type feedbackRequest struct {
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

func (f *Fetcher) SubmitFeedback(ctx context.Context, chatID entity.ChatID, rating int, comment, sessionID string) error {
	path := fmt.Sprintf("/feedback/%d", chatID)
	return f.postJSON(ctx, path, feedbackRequest{Rating: rating, Comment: comment, SessionID: sessionID}, nil)
}

func (f *Fetcher) ActiveCategories(ctx context.Context) ([]entity.Category, error) {
	var out []entity.Category
	if err := f.getJSON(ctx, "/categories/active", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *Fetcher) AdminStats(ctx context.Context) ([]entity.AdminStats, error) {
	var out []entity.AdminStats
	if err := f.getJSON(ctx, "/chats/admin/stats", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *Fetcher) OverallStats(ctx context.Context) (*entity.OverallStats, error) {
	var out entity.OverallStats
	if err := f.getJSON(ctx, "/superadmin/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *Fetcher) getJSON(ctx context.Context, path string, out interface{}) error {
	return f.do(ctx, http.MethodGet, path, nil, "", out)
}

func (f *Fetcher) postJSON(ctx context.Context, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Internal("Failed to encode request", err)
		}
		body = bytes.NewReader(raw)
	}
	return f.do(ctx, http.MethodPost, path, body, "application/json", out)
}

func (f *Fetcher) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, f.baseURL+path, body)
	if err != nil {
		return errors.Internal("Failed to build request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return errors.Internal("Request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Internal("Failed to read response", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return errors.Internal(fmt.Sprintf("Unexpected response (status %d)", resp.StatusCode), err)
	}
	if !env.Success {
		code := "INTERNAL_ERROR"
		message := "Request failed"
		if env.Error != nil {
			if env.Error.Code != "" {
				code = env.Error.Code
			}
			if env.Error.Message != "" {
				message = env.Error.Message
			}
		}
		return errors.New(code, message, resp.StatusCode, nil)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Internal("Failed to decode response", err)
	}
	return nil
}
