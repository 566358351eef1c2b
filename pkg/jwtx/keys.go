package jwtx

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the shortest signing secret NewCodec accepts.
const MinSecretLength = 32

const keyInfoPrefix = "tokengate/jwt/"

// DeriveKey expands a configured secret into the HS256 key for class. The
// class is bound into the HKDF info parameter, so the same secret never yields
// the same key for access and refresh tokens.
func DeriveKey(secret []byte, class Class) ([]byte, error) {
	if !class.valid() {
		return nil, ErrUnknownClass
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: %s secret has %d bytes, need %d", ErrWeakSecret, class, len(secret), MinSecretLength)
	}

	r := hkdf.New(sha256.New, secret, nil, []byte(keyInfoPrefix+string(class)))
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("jwtx: derive %s key: %w", class, err)
	}
	return key, nil
}
