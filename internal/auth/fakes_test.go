package auth

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// fakeCredentialStore is an in-memory CredentialStore keyed by username.
type fakeCredentialStore struct {
	users map[string]Identity
	err   error
}

func (f *fakeCredentialStore) Credentials(_ context.Context, username string) (Identity, error) {
	if f.err != nil {
		return Identity{}, f.err
	}
	identity, ok := f.users[username]
	if !ok {
		return Identity{}, sql.ErrNoRows
	}
	return identity, nil
}

func newFakeCredentialStore(users ...Identity) *fakeCredentialStore {
	store := &fakeCredentialStore{users: make(map[string]Identity)}
	for _, user := range users {
		store.users[user.Username] = user
	}
	return store
}

func testIdentity(t interface{ Fatalf(string, ...any) }, id, username, password string) Identity {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return Identity{ID: id, Username: username, PasswordHash: string(hash), Role: "USER"}
}

// fakeRefreshStore mirrors the Postgres store's semantics in memory: one live
// token per user, expired rows deleted on verification.
type fakeRefreshStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	counter   int
	byValue   map[string]RefreshTokenRecord
	usernames map[string]string

	createErr error
	findErr   error
}

func newFakeRefreshStore(ttl time.Duration) *fakeRefreshStore {
	return &fakeRefreshStore{
		ttl:       ttl,
		byValue:   make(map[string]RefreshTokenRecord),
		usernames: make(map[string]string),
	}
}

func (f *fakeRefreshStore) addUser(identity Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usernames[identity.ID] = identity.Username
}

func (f *fakeRefreshStore) Create(_ context.Context, userID string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for value, rec := range f.byValue {
		if rec.UserID == userID {
			delete(f.byValue, value)
		}
	}

	f.counter++
	value := fmt.Sprintf("refresh-token-%d", f.counter)
	f.byValue[value] = RefreshTokenRecord{
		ID:        fmt.Sprintf("rec-%d", f.counter),
		UserID:    userID,
		Username:  f.usernames[userID],
		ExpiresAt: time.Now().UTC().Add(f.ttl),
	}

	return value, nil
}

func (f *fakeRefreshStore) FindByToken(_ context.Context, raw string) (RefreshTokenRecord, error) {
	if f.findErr != nil {
		return RefreshTokenRecord{}, f.findErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.byValue[raw]
	if !ok {
		return RefreshTokenRecord{}, ErrUnknownRefreshToken
	}
	return rec, nil
}

func (f *fakeRefreshStore) VerifyNotExpired(_ context.Context, rec RefreshTokenRecord) error {
	if time.Now().UTC().Before(rec.ExpiresAt) {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for value, stored := range f.byValue {
		if stored.ID == rec.ID {
			delete(f.byValue, value)
		}
	}

	return ErrExpiredRefreshToken
}

func (f *fakeRefreshStore) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for value, rec := range f.byValue {
		if rec.UserID == userID {
			delete(f.byValue, value)
		}
	}

	return nil
}

func (f *fakeRefreshStore) RefreshTTL() time.Duration {
	return f.ttl
}

func (f *fakeRefreshStore) expire(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.byValue[raw]
	if ok {
		rec.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		f.byValue[raw] = rec
	}
}

func (f *fakeRefreshStore) liveCountFor(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, rec := range f.byValue {
		if rec.UserID == userID {
			count++
		}
	}
	return count
}
