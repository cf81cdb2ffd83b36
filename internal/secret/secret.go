package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"
)

// DefaultSalt seeds practice secrets when FLAGDLE_SALT is unset.
const DefaultSalt = "local_dev_salt"

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Derive expands salt+key into a deterministic 32-hex-symbol secret using
// HKDF-SHA256. The same (salt, key) pair always yields the same secret, so
// a practice server salted with the date serves a stable daily challenge.
func Derive(salt, key string) string {
	r := hkdf.New(sha256.New, []byte(key), []byte(salt), []byte("flagdle-secret"))
	var b [16]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		// HKDF can only fail once the output budget is exceeded, which 16
		// bytes never reaches.
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// Random returns a cryptographically random 32-hex-symbol secret.
func Random() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
