package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportchat/internal/infrastructure/auth"
)

func TestResolvePrincipalFromToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", 3600)

	adminToken, err := issuer.Issue("admin-1", "Agent Smith", auth.RoleAdmin)
	require.NoError(t, err)
	p, err := ResolvePrincipal(adminToken, "")
	require.NoError(t, err)
	assert.Equal(t, KindAdmin, p.Kind)
	assert.Equal(t, "admin-1", p.ID)
	assert.Equal(t, "Agent Smith", p.Name)
	assert.True(t, p.IsAdmin())

	userToken, err := issuer.Issue("user-1", "Budi", auth.RoleUser)
	require.NoError(t, err)
	p, err = ResolvePrincipal(userToken, "")
	require.NoError(t, err)
	assert.Equal(t, KindUser, p.Kind)
	assert.False(t, p.IsAdmin())
	assert.False(t, p.IsGuest())
}

func TestResolvePrincipalSuperAdminIsAdminKind(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", 3600)
	token, err := issuer.Issue("root-1", "Root", auth.RoleSuperAdmin)
	require.NoError(t, err)

	p, err := ResolvePrincipal(token, "")
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
}

func TestResolvePrincipalGuestTokenIsDurable(t *testing.T) {
	dir := t.TempDir()

	first, err := ResolvePrincipal("", dir)
	require.NoError(t, err)
	assert.True(t, first.IsGuest())
	assert.True(t, strings.HasPrefix(first.SessionID, "guest_"))

	// A second resolve from the same state dir sees the same token.
	second, err := ResolvePrincipal("", dir)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestSaveSessionIDOverwrites(t *testing.T) {
	dir := t.TempDir()

	first, err := ResolvePrincipal("", dir)
	require.NoError(t, err)

	// The backend minted a fresh token on chat creation.
	require.NoError(t, SaveSessionID(dir, "guest_fresh"))

	p, err := ResolvePrincipal("", dir)
	require.NoError(t, err)
	assert.Equal(t, "guest_fresh", p.SessionID)
	assert.NotEqual(t, first.SessionID, p.SessionID)
}

func TestResolvePrincipalRejectsGarbageToken(t *testing.T) {
	_, err := ResolvePrincipal("not-a-jwt", "")
	assert.Error(t, err)
}
