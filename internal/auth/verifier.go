package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"

	"github.com/friendschat/chatroom/internal/store/redisstore"
)

// Verifier checks a second-factor code for an identity. The stored secret is
// whatever the user directory holds for that user: a shared literal for the
// static verifier, a TOTP seed for the TOTP verifier, unused for the code
// store verifier.
type Verifier interface {
	Verify(ctx context.Context, loginKey, secret, code string) (bool, error)
}

// StaticVerifier reproduces the demo behavior: the code must equal the stored
// secret. Comparison is constant-time even though the secrets are not real.
type StaticVerifier struct{}

func (StaticVerifier) Verify(_ context.Context, _, secret, code string) (bool, error) {
	if code == "" || secret == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(code)) == 1, nil
}

// TOTPVerifier treats the stored secret as a base32 TOTP seed.
type TOTPVerifier struct{}

func (TOTPVerifier) Verify(_ context.Context, _, secret, code string) (bool, error) {
	if code == "" || secret == "" {
		return false, nil
	}
	return totp.Validate(code, secret), nil
}

// CodeStoreVerifier matches against a one-time code previously issued into
// Redis for this login key. The code is consumed on success.
type CodeStoreVerifier struct {
	Codes *redisstore.Store
}

func (v CodeStoreVerifier) Verify(ctx context.Context, loginKey, _, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	stored, err := v.Codes.GetMFACode(ctx, loginKey)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}
	_ = v.Codes.DeleteMFACode(ctx, loginKey)
	return true, nil
}
