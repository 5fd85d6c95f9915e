// internal/session/session.go

// Package session tracks the connected identity and its privilege level.
// Exactly one sign-in and one sign-out entry point mutate it; everything
// else receives the session value explicitly.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/orangejack/orangejack/internal/wallet"
)

// Session is the local representation of a connected identity. IsPrivileged
// is computed once at sign-in and never re-derived.
type Session struct {
	Address      string
	DisplayName  string
	IsPrivileged bool
}

// Privileged is the whole privilege gate: case-insensitive equality with the
// fixed owner identity. The ledger enforces the real authorization; this
// check only keeps doomed admin submissions off the wire.
func Privileged(address, owner string) bool {
	return owner != "" && strings.EqualFold(address, owner)
}

// Manager owns sign-in and sign-out. The persisted pair (address, cached
// display name) survives restarts and is cleared together.
type Manager struct {
	store Store
	owner string
	log   *logrus.Logger
}

// NewManager builds a Manager around a persistent store and the owner
// identity admin actions are gated on.
func NewManager(store Store, owner string, log *logrus.Logger) *Manager {
	return &Manager{store: store, owner: owner, log: log}
}

// SignIn establishes a session for the given address, restoring any cached
// display name, and persists it.
func (m *Manager) SignIn(ctx context.Context, address string) (*Session, error) {
	if !wallet.ValidAddress(address) {
		return nil, fmt.Errorf("invalid address %q", address)
	}
	s := &Session{
		Address:      address,
		IsPrivileged: Privileged(address, m.owner),
	}
	if prevAddr, prevName, err := m.store.Load(ctx); err == nil && strings.EqualFold(prevAddr, address) {
		s.DisplayName = prevName
	}
	if err := m.store.Save(ctx, s.Address, s.DisplayName); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	m.log.WithFields(logrus.Fields{
		"address":    s.Address,
		"privileged": s.IsPrivileged,
	}).Info("Signed in")
	return s, nil
}

// Restore recovers a persisted session from a previous run, if one exists.
func (m *Manager) Restore(ctx context.Context) (*Session, bool, error) {
	address, name, err := m.store.Load(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}
	if address == "" {
		return nil, false, nil
	}
	return &Session{
		Address:      address,
		DisplayName:  name,
		IsPrivileged: Privileged(address, m.owner),
	}, true, nil
}

// SetDisplayName caches the confirmed display name alongside the address.
// Callers invoke this only after the stats service accepted the name.
func (m *Manager) SetDisplayName(ctx context.Context, s *Session, name string) error {
	s.DisplayName = name
	if err := m.store.Save(ctx, s.Address, name); err != nil {
		return fmt.Errorf("persist display name: %w", err)
	}
	return nil
}

// SignOut clears the session and the cached display name together.
func (m *Manager) SignOut(ctx context.Context, s *Session) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.log.WithField("address", s.Address).Info("Signed out")
	*s = Session{}
	return nil
}
