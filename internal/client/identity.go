package client

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"supportchat/internal/infrastructure/auth"
	"supportchat/pkg/errors"
)

type PrincipalKind string

const (
	KindUser  PrincipalKind = "user"
	KindAdmin PrincipalKind = "admin"
	KindGuest PrincipalKind = "guest"
)

// Principal is the resolved calling identity: an authenticated user or
// agent carrying a bearer token, or a guest carrying a durable session
// token. Every REST call and channel subscription is scoped by it.
type Principal struct {
	Kind      PrincipalKind
	ID        string
	Name      string
	Token     string
	SessionID string
}

func (p Principal) IsGuest() bool {
	return p.Kind == KindGuest
}

func (p Principal) IsAdmin() bool {
	return p.Kind == KindAdmin
}

const sessionFileName = "guest_session"

// ResolvePrincipal derives the calling identity. A non-empty token is
// parsed for its claims (the backend re-verifies it on every call, so
// no local signature check is needed); otherwise a guest session token
// is loaded from stateDir, minting and persisting one on first use.
func ResolvePrincipal(token, stateDir string) (Principal, error) {
	if token != "" {
		claims, err := auth.ParseUnverified(token)
		if err != nil {
			return Principal{}, err
		}
		kind := KindUser
		if claims.Role == auth.RoleAdmin || claims.Role == auth.RoleSuperAdmin {
			kind = KindAdmin
		}
		return Principal{
			Kind:  kind,
			ID:    claims.Subject,
			Name:  claims.Name,
			Token: token,
		}, nil
	}

	sessionID, err := loadOrCreateSessionID(stateDir)
	if err != nil {
		return Principal{}, err
	}
	return Principal{
		Kind:      KindGuest,
		Name:      "Guest",
		SessionID: sessionID,
	}, nil
}

func loadOrCreateSessionID(stateDir string) (string, error) {
	if stateDir == "" {
		// No durable state requested; a process-lifetime token still
		// lets everything work, it just won't survive a restart.
		return "guest_" + uuid.New().String(), nil
	}

	path := filepath.Join(stateDir, sessionFileName)
	if raw, err := os.ReadFile(path); err == nil {
		if sessionID := strings.TrimSpace(string(raw)); sessionID != "" {
			return sessionID, nil
		}
	}

	sessionID := "guest_" + uuid.New().String()
	if err := SaveSessionID(stateDir, sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}

// SaveSessionID persists the guest session token. The engine calls it
// again when the backend mints a fresh token on guest chat creation.
func SaveSessionID(stateDir, sessionID string) error {
	if stateDir == "" {
		return nil
	}
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return errors.Internal("Failed to create state directory", err)
	}
	path := filepath.Join(stateDir, sessionFileName)
	if err := os.WriteFile(path, []byte(sessionID+"\n"), 0o600); err != nil {
		return errors.Internal("Failed to persist session token", err)
	}
	return nil
}
