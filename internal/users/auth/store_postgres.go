// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jverhulst/portier/internal/platform/apperr"
	"github.com/jverhulst/portier/internal/platform/constants"
	"github.com/jverhulst/portier/internal/platform/dberr"
	"github.com/jverhulst/portier/internal/users/permissions"
)

// # User Storage

// PostgresUserRepository implements [UserRepository] on pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates the PostgreSQL-backed account store.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `
	id, username, email, email_verified,
	COALESCE(password_hash, ''), role, active, created_at, updated_at`

// scanUser reads one user row in userColumns order.
func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var user User
	var role string
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.EmailVerified,
		&user.PasswordHash,
		&role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = permissions.ParseRole(role)
	return &user, nil
}

// CreateBootstrap implements [UserRepository].
//
// The existence check and the insert run in one transaction, serialized on a
// transaction-scoped advisory lock so concurrent first registrations cannot
// both observe an empty table. The lock releases automatically at commit or
// rollback.
func (repository *PostgresUserRepository) CreateBootstrap(context context.Context, user *User) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	// Rollback is a no-op once the transaction committed.
	defer transaction.Rollback(context)

	if _, err := transaction.Exec(context,
		`SELECT pg_advisory_xact_lock($1)`, constants.BootstrapLockKey); err != nil {
		return dberr.Wrap(err, "User")
	}

	var populated bool
	if err := transaction.QueryRow(context,
		`SELECT EXISTS (SELECT 1 FROM users)`).Scan(&populated); err != nil {
		return dberr.Wrap(err, "User")
	}

	if !populated {
		// The very first account administers the system and signs in
		// immediately, without a verification round trip.
		user.Role = permissions.RoleAdmin
		user.EmailVerified = true
	} else if !user.Role.IsValid() {
		user.Role = permissions.RoleUser
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = transaction.Exec(context, `
		INSERT INTO users (id, username, email, email_verified, password_hash, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)`,
		user.ID,
		user.Username,
		user.Email,
		user.EmailVerified,
		user.PasswordHash,
		string(user.Role),
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		switch {
		case dberr.IsUniqueViolation(err, "users_username_key"):
			return apperr.ConflictField(FieldUsername, "Username already taken!")
		case dberr.IsUniqueViolation(err, "users_email_key"):
			return apperr.ConflictField(FieldEmail, "Email is already registered!")
		default:
			return dberr.Wrap(err, "User")
		}
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "User")
	}
	return nil
}

// FindByID implements [UserRepository].
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	row := repository.pool.QueryRow(context,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

// FindByEmail implements [UserRepository].
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	row := repository.pool.QueryRow(context,
		`SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

// UsernameTaken implements [UserRepository].
func (repository *PostgresUserRepository) UsernameTaken(context context.Context, username string) (bool, error) {
	var taken bool
	err := repository.pool.QueryRow(context,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&taken)
	if err != nil {
		return false, dberr.Wrap(err, "User")
	}
	return taken, nil
}

// MarkEmailVerified implements [UserRepository].
func (repository *PostgresUserRepository) MarkEmailVerified(context context.Context, userID string) error {
	tag, err := repository.pool.Exec(context,
		`UPDATE users SET email_verified = TRUE, updated_at = now() WHERE id = $1`, userID)
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// UpdatePassword implements [UserRepository].
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID string, passwordHash string) error {
	tag, err := repository.pool.Exec(context,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// # Session Storage

// PostgresSessionRepository implements [SessionRepository] on pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionRepository creates the PostgreSQL-backed session store.
func NewPostgresSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// Create implements [SessionRepository].
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	_, err := repository.pool.Exec(context, `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`,
		session.Token,
		session.UserID,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "Session")
	}
	return nil
}

// FindWithUser implements [SessionRepository]. Expired rows are returned so
// the caller can delete them lazily.
func (repository *PostgresSessionRepository) FindWithUser(context context.Context, token string) (*SessionWithUser, error) {
	row := repository.pool.QueryRow(context, `
		SELECT
			s.token, s.user_id, s.expires_at, s.created_at,
			u.id, u.username, u.email, u.email_verified,
			COALESCE(u.password_hash, ''), u.role, u.active, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1`, token)

	var result SessionWithUser
	var user User
	var role string
	err := row.Scan(
		&result.Token,
		&result.UserID,
		&result.ExpiresAt,
		&result.CreatedAt,
		&user.ID,
		&user.Username,
		&user.Email,
		&user.EmailVerified,
		&user.PasswordHash,
		&role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Session")
	}
	user.Role = permissions.ParseRole(role)
	result.User = &user
	return &result, nil
}

// DeleteByToken implements [SessionRepository]. Deleting a missing token is
// not an error.
func (repository *PostgresSessionRepository) DeleteByToken(context context.Context, token string) error {
	if _, err := repository.pool.Exec(context,
		`DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return dberr.Wrap(err, "Session")
	}
	return nil
}

// DeleteAllForUser implements [SessionRepository].
func (repository *PostgresSessionRepository) DeleteAllForUser(context context.Context, userID string) error {
	if _, err := repository.pool.Exec(context,
		`DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return dberr.Wrap(err, "Session")
	}
	return nil
}
