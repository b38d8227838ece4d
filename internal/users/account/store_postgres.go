// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package account

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jverhulst/portier/internal/platform/apperr"
	"github.com/jverhulst/portier/internal/platform/dberr"
	"github.com/jverhulst/portier/internal/users/auth"
	"github.com/jverhulst/portier/internal/users/permissions"
	"github.com/jverhulst/portier/pkg/pagination"
)

// # Account Storage

// PostgresRepository implements [Repository] on pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the PostgreSQL-backed account admin store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const userColumns = `
	id, username, email, email_verified,
	COALESCE(password_hash, ''), role, active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var user auth.User
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

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	row := repository.pool.QueryRow(context,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

// FindByUsername implements [Repository].
func (repository *PostgresRepository) FindByUsername(context context.Context, username string) (*auth.User, error) {
	row := repository.pool.QueryRow(context,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

// List implements [Repository].
func (repository *PostgresRepository) List(context context.Context, params pagination.Params) ([]*auth.User, int, error) {
	var total int
	if err := repository.pool.QueryRow(context,
		`SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}

	rows, err := repository.pool.Query(context,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}
	defer rows.Close()

	users := make([]*auth.User, 0, params.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "User")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}

	return users, total, nil
}

// SetRole implements [Repository].
func (repository *PostgresRepository) SetRole(context context.Context, userID string, role permissions.Role) error {
	tag, err := repository.pool.Exec(context,
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, userID, string(role))
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// SetActive implements [Repository].
func (repository *PostgresRepository) SetActive(context context.Context, userID string, active bool) error {
	tag, err := repository.pool.Exec(context,
		`UPDATE users SET active = $2, updated_at = now() WHERE id = $1`, userID, active)
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// Delete implements [Repository]. Sessions and the profile cascade away.
func (repository *PostgresRepository) Delete(context context.Context, userID string) error {
	tag, err := repository.pool.Exec(context,
		`DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// # Profile Storage

// PostgresProfileRepository implements [ProfileRepository] on pgx. It also
// satisfies the initializer contract the registration flow depends on.
type PostgresProfileRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresProfileRepository creates the PostgreSQL-backed profile store.
func NewPostgresProfileRepository(pool *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

const profileColumns = `
	user_id,
	COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(phone, ''),
	COALESCE(bio, ''), COALESCE(avatar_url, ''), COALESCE(email_public, ''),
	updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*Profile, error) {
	var profile Profile
	err := row.Scan(
		&profile.UserID,
		&profile.FirstName,
		&profile.LastName,
		&profile.Phone,
		&profile.Bio,
		&profile.AvatarURL,
		&profile.EmailPublic,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// EnsureProfile implements [ProfileRepository]. Racing creations collapse
// into the existing row.
func (repository *PostgresProfileRepository) EnsureProfile(context context.Context, userID string) error {
	_, err := repository.pool.Exec(context, `
		INSERT INTO profiles (user_id, updated_at)
		VALUES ($1, now())
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return dberr.Wrap(err, "Profile")
	}
	return nil
}

// FindByUserID implements [ProfileRepository].
func (repository *PostgresProfileRepository) FindByUserID(context context.Context, userID string) (*Profile, error) {
	row := repository.pool.QueryRow(context,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	profile, err := scanProfile(row)
	if err != nil {
		return nil, dberr.Wrap(err, "Profile")
	}
	return profile, nil
}

// Update implements [ProfileRepository]. COALESCE keeps columns whose input
// field is nil, so partial edits stay a single statement.
func (repository *PostgresProfileRepository) Update(context context.Context, userID string, update ProfileUpdate) (*Profile, error) {
	row := repository.pool.QueryRow(context, `
		UPDATE profiles SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			phone      = COALESCE($4, phone),
			bio        = COALESCE($5, bio),
			avatar_url = COALESCE($6, avatar_url),
			updated_at = now()
		WHERE user_id = $1
		RETURNING `+profileColumns,
		userID,
		update.FirstName,
		update.LastName,
		update.Phone,
		update.Bio,
		update.AvatarURL,
	)
	profile, err := scanProfile(row)
	if err != nil {
		return nil, dberr.Wrap(err, "Profile")
	}
	return profile, nil
}

// EmailPublicTaken implements [ProfileRepository].
func (repository *PostgresProfileRepository) EmailPublicTaken(context context.Context, email string, excludeUserID string) (bool, error) {
	var taken bool
	err := repository.pool.QueryRow(context, `
		SELECT EXISTS (
			SELECT 1 FROM profiles
			WHERE email_public = lower($1) AND user_id <> $2
		)`, email, excludeUserID).Scan(&taken)
	if err != nil {
		return false, dberr.Wrap(err, "Profile")
	}
	return taken, nil
}

// SetEmailPublic implements [ProfileRepository]. An empty email clears the
// column back to NULL so the unique index ignores it.
func (repository *PostgresProfileRepository) SetEmailPublic(context context.Context, userID string, email string) error {
	tag, err := repository.pool.Exec(context, `
		UPDATE profiles
		SET email_public = NULLIF(lower($2), ''), updated_at = now()
		WHERE user_id = $1`, userID, email)
	if err != nil {
		if dberr.IsUniqueViolation(err, "profiles_email_public_key") {
			return apperr.ConflictField(fieldEmailPublic, "Email already in use!")
		}
		return dberr.Wrap(err, "Profile")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Profile")
	}
	return nil
}
