// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Mail Tokens

// Mail tokens are the signed, stateless tokens embedded in email links
// (address verification). They are NOT session credentials: sessions are
// opaque random tokens stored server-side, while a mail token only proves
// that the holder received an email we sent.

// PurposeVerifyEmail is the purpose claim for address verification links.
const PurposeVerifyEmail = "verify_email"

// MailClaims is the payload embedded inside a signed mail token.
type MailClaims struct {
	jwt.RegisteredClaims

	// Purpose prevents a token minted for one flow being replayed in another.
	Purpose string `json:"pur"`
}

// MailTokenService signs and verifies mail tokens using HMAC-SHA256.
type MailTokenService struct {
	secret []byte
	issuer string
}

// NewMailTokenService creates a new MailTokenService.
func NewMailTokenService(secret, issuer string) (*MailTokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: mail token secret must not be empty")
	}
	return &MailTokenService{secret: []byte(secret), issuer: issuer}, nil
}

// Generate creates a signed mail token for the given user and purpose.
func (service *MailTokenService) Generate(userID, purpose string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := MailClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		Purpose: purpose,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign mail token: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature, expiry, and purpose of a mail token and
// returns the subject user ID.
func (service *MailTokenService) Verify(tokenString, purpose string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &MailClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		return "", fmt.Errorf("sec: invalid mail token: %w", err)
	}

	claims, ok := token.Claims.(*MailClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("sec: invalid mail token claims")
	}

	if claims.Purpose != purpose {
		return "", fmt.Errorf("sec: mail token purpose mismatch")
	}

	return claims.Subject, nil
}
