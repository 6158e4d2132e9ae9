// Package repotest provides an in-process user Store for tests.
package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/repo"
)

// MemoryStore is an in-process Store with the same uniqueness and not-found
// behaviour as repo.UserRepo. Transactions are serialized and rolled back by
// restoring a snapshot.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	byID map[string]entity.User

	// CreateErr, when set, is returned by Create before anything is stored.
	CreateErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]entity.User)}
}

func (m *MemoryStore) WithinTx(ctx context.Context, fn func(tx repo.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := make(map[string]entity.User, len(m.byID))
	for k, v := range m.byID {
		snapshot[k] = v
	}
	m.mu.Unlock()

	err := fn(memoryTx{m})

	if err != nil {
		m.mu.Lock()
		m.byID = snapshot
		m.mu.Unlock()
	}
	return err
}

// memoryTx is the transaction-bound view handed to WithinTx callbacks.
type memoryTx struct{ *MemoryStore }

func (t memoryTx) WithinTx(ctx context.Context, fn func(tx repo.Store) error) error {
	return fn(t)
}

func (m *MemoryStore) Create(ctx context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, existing := range m.byID {
		if existing.UserID == u.UserID {
			return fmt.Errorf("%w (users_user_id_key)", repo.ErrDuplicate)
		}
	}
	if _, ok := m.byID[u.ID]; ok {
		return fmt.Errorf("primary key %s already used", u.ID)
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	m.byID[u.ID] = clone(*u)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := clone(u)
	return &c, nil
}

func (m *MemoryStore) GetByUserID(ctx context.Context, userID string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.UserID == userID {
			c := clone(u)
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MemoryStore) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	_, err := m.GetByUserID(ctx, userID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (m *MemoryStore) Update(ctx context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[u.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Apply(entity.ProfileUpdate{
		NickName:   u.NickName,
		Age:        u.Age,
		Gender:     u.Gender,
		PhoneNum:   u.PhoneNum,
		ProfileImg: u.ProfileImg,
	})
	stored.UpdatedAt = time.Now().UTC()
	u.UpdatedAt = stored.UpdatedAt
	m.byID[u.ID] = stored
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

// Len returns the number of stored accounts.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func clone(u entity.User) entity.User {
	if u.Password != nil {
		p := *u.Password
		u.Password = &p
	}
	return u
}

var _ repo.Store = (*MemoryStore)(nil)
