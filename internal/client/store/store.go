// Package store holds the client's credential pair: the access credential
// sent with every authenticated request and the refresh credential issued
// alongside it.
//
// Reads are served from an in-process mirror and never block. Writes go to
// the backing repository first (Save) or after the mirror is cleared (Clear),
// so a failed delete can never leave a readable credential behind.
package store

import (
	"context"
	"sync"

	"github.com/samber/oops"

	"github.com/dmitrijs2005/authdesk/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/authdesk/internal/common"
)

// CredentialStore is the single source of truth for the credential pair.
type CredentialStore interface {
	Save(ctx context.Context, access, refresh string) error
	// Read returns the access credential; ok is false when none is stored.
	Read() (access string, ok bool)
	Refresh() (refresh string, ok bool)
	// Clear removes both credentials. It is idempotent.
	Clear(ctx context.Context) error
}

// PersistentStore mirrors a credentials.Repository in memory.
type PersistentStore struct {
	repo credentials.Repository

	// wmu serialises Save and Clear so the mirror and the repository
	// never disagree after concurrent writes.
	wmu sync.Mutex

	mu      sync.RWMutex
	access  string
	refresh string
}

var _ CredentialStore = (*PersistentStore)(nil)

// Open loads any previously saved pair from repo.
func Open(ctx context.Context, repo credentials.Repository) (*PersistentStore, error) {
	s := &PersistentStore{repo: repo}

	access, _, err := repo.Get(ctx, common.AccessTokenKey)
	if err != nil {
		return nil, oops.In("store").Wrapf(err, "load access credential")
	}
	refresh, _, err := repo.Get(ctx, common.RefreshTokenKey)
	if err != nil {
		return nil, oops.In("store").Wrapf(err, "load refresh credential")
	}

	// A refresh credential without an access credential is a leftover of an
	// interrupted clear.
	if access == "" && refresh != "" {
		if err := repo.DeleteAll(ctx, common.AccessTokenKey, common.RefreshTokenKey); err != nil {
			return nil, oops.In("store").Wrapf(err, "drop orphaned refresh credential")
		}
		return s, nil
	}

	s.access, s.refresh = access, refresh
	return s, nil
}

func (s *PersistentStore) Save(ctx context.Context, access, refresh string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	err := s.repo.SetAll(ctx, map[string]string{
		common.AccessTokenKey:  access,
		common.RefreshTokenKey: refresh,
	})
	if err != nil {
		return oops.In("store").Code("STORE_SAVE").Wrapf(err, "save credentials")
	}

	s.mu.Lock()
	s.access, s.refresh = access, refresh
	s.mu.Unlock()
	return nil
}

func (s *PersistentStore) Read() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, s.access != ""
}

func (s *PersistentStore) Refresh() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh, s.refresh != ""
}

func (s *PersistentStore) Clear(ctx context.Context) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.Lock()
	s.access, s.refresh = "", ""
	s.mu.Unlock()

	if err := s.repo.DeleteAll(ctx, common.AccessTokenKey, common.RefreshTokenKey); err != nil {
		return oops.In("store").Code("STORE_CLEAR").Wrapf(err, "clear credentials")
	}
	return nil
}
