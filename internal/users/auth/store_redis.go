// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jverhulst/portier/internal/platform/apperr"
	"github.com/jverhulst/portier/internal/platform/constants"
)

// # Reset Token Storage

// RedisResetTokenRepository implements [ResetTokenRepository] on Redis.
//
// Tokens are plain string keys with a TTL: expiry needs no cleanup job, and
// a consumed token is removed with a single DEL.
type RedisResetTokenRepository struct {
	client *redis.Client
}

// NewRedisResetTokenRepository creates the Redis-backed reset token store.
func NewRedisResetTokenRepository(client *redis.Client) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

func resetTokenKey(token string) string {
	return constants.RedisPrefixResetToken + token
}

// Set implements [ResetTokenRepository].
func (repository *RedisResetTokenRepository) Set(context context.Context, token string, userID string, ttl time.Duration) error {
	if err := repository.client.Set(context, resetTokenKey(token), userID, ttl).Err(); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Get implements [ResetTokenRepository].
func (repository *RedisResetTokenRepository) Get(context context.Context, token string) (string, error) {
	userID, err := repository.client.Get(context, resetTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Reset token")
		}
		return "", apperr.Internal(err)
	}
	return userID, nil
}

// Delete implements [ResetTokenRepository].
func (repository *RedisResetTokenRepository) Delete(context context.Context, token string) error {
	if err := repository.client.Del(context, resetTokenKey(token)).Err(); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
