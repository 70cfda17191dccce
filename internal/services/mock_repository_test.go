package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/SAP-F-2025/user-service/internal/models"
	"github.com/SAP-F-2025/user-service/internal/repositories"
)

// mockRepository is an in-memory Repository for service tests.
type mockRepository struct {
	users      *mockUserRepository
	authEvents *mockAuthEventRepository
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:      &mockUserRepository{byID: make(map[string]*models.User)},
		authEvents: &mockAuthEventRepository{},
	}
}

func (m *mockRepository) User() repositories.UserRepository           { return m.users }
func (m *mockRepository) AuthEvent() repositories.AuthEventRepository { return m.authEvents }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

type mockUserRepository struct {
	mu   sync.Mutex
	byID map[string]*models.User
}

func (m *mockUserRepository) clone(u *models.User) *models.User {
	cp := *u
	return &cp
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byID {
		if existing.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}

	m.byID[user.ID] = m.clone(user)
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}

	// Mirror the serialized cache view: credential material never survives
	// the JSON round-trip.
	cp := m.clone(user)
	cp.PasswordHash = ""
	cp.ResetTokenHash = nil
	cp.ResetExpiresAt = nil
	return cp, nil
}

func (m *mockUserRepository) GetCredentialsByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return m.clone(user), nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.byID {
		if user.Email == email {
			return m.clone(user), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.byID[user.ID]
	if !ok {
		return repositories.ErrNotFound
	}

	for id, other := range m.byID {
		if id != user.ID && other.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}

	stored.Name = user.Name
	stored.Email = user.Email
	stored.Bio = user.Bio
	stored.AvatarURL = user.AvatarURL
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepository) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.LastActiveAt = at
	return nil
}

func (m *mockUserRepository) SetResetTicket(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.ResetTokenHash = &tokenHash
	expiry := expiresAt
	user.ResetExpiresAt = &expiry
	return nil
}

func (m *mockUserRepository) RedeemResetTicket(ctx context.Context, tokenHash string, newPasswordHash string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.byID {
		if user.ResetTokenHash == nil || *user.ResetTokenHash != tokenHash {
			continue
		}
		if user.ResetExpiresAt == nil || !user.ResetExpiresAt.After(now) {
			continue
		}

		user.PasswordHash = newPasswordHash
		user.ResetTokenHash = nil
		user.ResetExpiresAt = nil
		return user.ID, nil
	}
	return "", repositories.ErrNotFound
}

func (m *mockUserRepository) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*models.User
	for _, user := range m.byID {
		if filters.Role != "" && user.Role != filters.Role {
			continue
		}
		if filters.Query != "" {
			q := strings.ToLower(filters.Query)
			if !strings.Contains(strings.ToLower(user.Name), q) && !strings.Contains(user.Email, q) {
				continue
			}
		}
		matched = append(matched, m.clone(user))
	}

	total := int64(len(matched))
	if filters.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filters.Offset:]
	if filters.Limit > 0 && filters.Limit < len(matched) {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

func (m *mockUserRepository) Search(ctx context.Context, query string, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filters.Query = query
	return m.List(ctx, filters)
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type mockAuthEventRepository struct {
	mu     sync.Mutex
	events []*models.AuthEvent
}

func (m *mockAuthEventRepository) Record(ctx context.Context, event *models.AuthEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockAuthEventRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.AuthEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*models.AuthEvent
	for _, event := range m.events {
		if event.UserID != nil && *event.UserID == userID {
			matched = append(matched, event)
		}
	}
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *mockAuthEventRepository) byType(eventType models.AuthEventType) []*models.AuthEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*models.AuthEvent
	for _, event := range m.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}
