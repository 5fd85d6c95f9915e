// internal/session/session_test.go
package session

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerAddr  = "0x9Cd80Cc680204Eb6b77602D0Db9E9BF982895F00"
	playerAddr = "0x435951b12825cfdcae394fcc2494a522d9a7011d"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestManager() (*Manager, *MemoryStore) {
	store := NewMemoryStore()
	return NewManager(store, ownerAddr, testLogger()), store
}

func TestPrivilegedIsCaseInsensitive(t *testing.T) {
	assert.True(t, Privileged("0x9cd80cc680204eb6b77602d0db9e9bf982895f00", ownerAddr))
	assert.True(t, Privileged(ownerAddr, ownerAddr))
	assert.False(t, Privileged(playerAddr, ownerAddr))
	assert.False(t, Privileged(ownerAddr, ""), "no owner configured means nobody is privileged")
}

func TestSignInComputesPrivilegeOnce(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	s, err := m.SignIn(ctx, "0x9cd80cc680204eb6b77602d0db9e9bf982895f00")
	require.NoError(t, err)
	assert.True(t, s.IsPrivileged)

	s, err = m.SignIn(ctx, playerAddr)
	require.NoError(t, err)
	assert.False(t, s.IsPrivileged)
}

func TestSignInRejectsMalformedAddress(t *testing.T) {
	m, _ := newTestManager()
	_, err := m.SignIn(context.Background(), "not-an-address")
	assert.Error(t, err)
}

func TestSessionPersistsAcrossRestore(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	s, err := m.SignIn(ctx, playerAddr)
	require.NoError(t, err)
	require.NoError(t, m.SetDisplayName(ctx, s, "Orange"))

	restored, ok, err := m.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, playerAddr, restored.Address)
	assert.Equal(t, "Orange", restored.DisplayName)
	assert.False(t, restored.IsPrivileged)
}

func TestSignOutClearsAddressAndNameTogether(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	s, err := m.SignIn(ctx, playerAddr)
	require.NoError(t, err)
	require.NoError(t, m.SetDisplayName(ctx, s, "Orange"))
	require.NoError(t, m.SignOut(ctx, s))

	assert.Equal(t, Session{}, *s)
	addr, name, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, addr)
	assert.Empty(t, name)

	_, ok, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignInRestoresCachedNameForSameAddress(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	s, err := m.SignIn(ctx, playerAddr)
	require.NoError(t, err)
	require.NoError(t, m.SetDisplayName(ctx, s, "Orange"))

	// Fresh sign-in with the same wallet keeps the cached name.
	again, err := m.SignIn(ctx, playerAddr)
	require.NoError(t, err)
	assert.Equal(t, "Orange", again.DisplayName)

	// A different wallet does not inherit it.
	other, err := m.SignIn(ctx, "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.Empty(t, other.DisplayName)
}
