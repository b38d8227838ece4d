// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package auth

import "time"

// # Session Lifecycle

const (
	// SessionTTL is the sliding lifetime of a browser session. Sessions are
	// not renewed on use; a new sign-in mints a fresh one.
	SessionTTL = 7 * 24 * time.Hour

	// SessionTokenBytes is the entropy of a session token before hex
	// encoding (32 bytes = 256 bits, 64 hex characters on the wire).
	SessionTokenBytes = 32
)

// # Out-of-band Tokens

const (
	// VerificationTokenTTL bounds how long an email-verification link stays
	// valid.
	VerificationTokenTTL = 24 * time.Hour

	// ResetTokenTTL bounds how long a password-reset link stays valid.
	ResetTokenTTL = time.Hour

	// ResetTokenBytes is the entropy of a password-reset token.
	ResetTokenBytes = 32
)

// # Username Allocation

const (
	// allocatorNumericAttempts caps the deterministic numbered-suffix probes
	// (base, base1, base2, ...) before falling back to random suffixes.
	allocatorNumericAttempts = 50

	// allocatorRandomAttempts caps the random-suffix probes before the
	// collision-proof UUID fallback kicks in.
	allocatorRandomAttempts = 20

	// allocatorRandomSuffixLen is the length of a random base-36 suffix.
	allocatorRandomSuffixLen = 6
)
