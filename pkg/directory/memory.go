package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memoryEntry struct {
	user User
	hash []byte
}

// InMemory is a thread-safe directory holding bcrypt password hashes.
// Used for development and tests.
type InMemory struct {
	mu    sync.RWMutex
	users map[string]memoryEntry // keyed by tenantID + "/" + username
}

// NewInMemory creates an empty in-memory directory
func NewInMemory() *InMemory {
	return &InMemory{users: make(map[string]memoryEntry)}
}

func memoryKey(tenantID, username string) string {
	return tenantID + "/" + username
}

// Add registers a user with the given password, hashing it with bcrypt.
// Returns the assigned user ID.
func (d *InMemory) Add(tenantID, username, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Username: username,
		Active:   true,
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[memoryKey(tenantID, username)] = memoryEntry{user: user, hash: hash}
	return user.ID, nil
}

// Deactivate disables a user without removing the entry
func (d *InMemory) Deactivate(tenantID, username string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := memoryKey(tenantID, username)
	if entry, ok := d.users[key]; ok {
		entry.user.Active = false
		d.users[key] = entry
	}
}

// Authenticate verifies the password for a tenant-scoped username
func (d *InMemory) Authenticate(_ context.Context, tenantID, username, password string) (*User, error) {
	d.mu.RLock()
	entry, ok := d.users[memoryKey(tenantID, username)]
	d.mu.RUnlock()

	if !ok || !entry.user.Active {
		return nil, ErrInvalidLogin
	}
	if err := bcrypt.CompareHashAndPassword(entry.hash, []byte(password)); err != nil {
		return nil, ErrInvalidLogin
	}

	user := entry.user
	return &user, nil
}
