// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package auth_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jverhulst/portier/internal/platform/apperr"
	"github.com/jverhulst/portier/internal/platform/mailer"
	"github.com/jverhulst/portier/internal/users/auth"
	"github.com/jverhulst/portier/internal/users/permissions"
)

// In-memory repository fakes. The mutex stands in for the advisory lock of
// the real store: CreateBootstrap must stay atomic under concurrency.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*auth.User)}
}

func (repo *fakeUserRepo) CreateBootstrap(_ context.Context, user *auth.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, existing := range repo.users {
		if existing.Username == user.Username {
			return apperr.ConflictField(auth.FieldUsername, "Username already taken!")
		}
		if existing.Email == user.Email {
			return apperr.ConflictField(auth.FieldEmail, "Email is already registered!")
		}
	}

	if len(repo.users) == 0 {
		user.Role = permissions.RoleAdmin
		user.EmailVerified = true
	} else if !user.Role.IsValid() {
		user.Role = permissions.RoleUser
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	repo.users[user.ID] = &clone
	return nil
}

func (repo *fakeUserRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repo *fakeUserRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, user := range repo.users {
		if user.Email == strings.ToLower(email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepo) UsernameTaken(_ context.Context, username string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, user := range repo.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (repo *fakeUserRepo) MarkEmailVerified(_ context.Context, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.EmailVerified = true
	return nil
}

func (repo *fakeUserRepo) UpdatePassword(_ context.Context, userID string, passwordHash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = passwordHash
	return nil
}

// admins counts stored accounts holding the ADMIN role.
func (repo *fakeUserRepo) admins() int {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	count := 0
	for _, user := range repo.users {
		if user.Role == permissions.RoleAdmin {
			count++
		}
	}
	return count
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session
	users    *fakeUserRepo
}

func newFakeSessionRepo(users *fakeUserRepo) *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[string]*auth.Session),
		users:    users,
	}
}

func (repo *fakeSessionRepo) Create(_ context.Context, session *auth.Session) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	clone := *session
	repo.sessions[session.Token] = &clone
	return nil
}

func (repo *fakeSessionRepo) FindWithUser(ctx context.Context, token string) (*auth.SessionWithUser, error) {
	repo.mu.Lock()
	session, ok := repo.sessions[token]
	repo.mu.Unlock()
	if !ok {
		return nil, apperr.NotFound("Session")
	}

	user, err := repo.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return &auth.SessionWithUser{Session: *session, User: user}, nil
}

func (repo *fakeSessionRepo) DeleteByToken(_ context.Context, token string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	delete(repo.sessions, token)
	return nil
}

func (repo *fakeSessionRepo) DeleteAllForUser(_ context.Context, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for token, session := range repo.sessions {
		if session.UserID == userID {
			delete(repo.sessions, token)
		}
	}
	return nil
}

func (repo *fakeSessionRepo) count() int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return len(repo.sessions)
}

type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]string)}
}

func (repo *fakeResetRepo) Set(_ context.Context, token string, userID string, _ time.Duration) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.tokens[token] = userID
	return nil
}

func (repo *fakeResetRepo) Get(_ context.Context, token string) (string, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	userID, ok := repo.tokens[token]
	if !ok {
		return "", apperr.NotFound("Reset token")
	}
	return userID, nil
}

func (repo *fakeResetRepo) Delete(_ context.Context, token string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	delete(repo.tokens, token)
	return nil
}

type fakeProfiles struct {
	mu      sync.Mutex
	created map[string]int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{created: make(map[string]int)}
}

func (profiles *fakeProfiles) EnsureProfile(_ context.Context, userID string) error {
	profiles.mu.Lock()
	defer profiles.mu.Unlock()

	profiles.created[userID]++
	return nil
}

// recordingSender captures outbound mail instead of delivering it.
type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (sender *recordingSender) SendEmail(_ context.Context, email mailer.Email) bool {
	sender.mu.Lock()
	defer sender.mu.Unlock()

	sender.sent = append(sender.sent, email)
	return true
}

func (sender *recordingSender) lastTo(address string) *mailer.Email {
	sender.mu.Lock()
	defer sender.mu.Unlock()

	for i := len(sender.sent) - 1; i >= 0; i-- {
		if sender.sent[i].To == address {
			return &sender.sent[i]
		}
	}
	return nil
}
