// Package auth holds the password codec and the role based access policy.
package auth

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"

	"inkwell/constants"
)

var (
	ErrWeakPassword    = errors.Errorf("password must be at least %d characters long", constants.MIN_PASSWORD_LENGTH)
	ErrMalformedDigest = errors.New("malformed password digest")
)

const (
	DefaultIterations = 600000
	// iteration count assumed for digests written without one
	legacyIterations = 260000
	saltChars        = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var hashes = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// PasswordCodec produces and checks self-describing PBKDF2 digests of the
// form "pbkdf2:sha256:<iterations>$<salt>$<hex key>".
type PasswordCodec struct {
	Iterations int
	SaltLength int
}

func NewPasswordCodec(iterations int) PasswordCodec {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return PasswordCodec{Iterations: iterations, SaltLength: 16}
}

func (c PasswordCodec) Hash(plaintext string) (string, error) {
	salt, err := generateSalt(c.SaltLength)
	if err != nil {
		return "", errors.Wrap(err, "generate salt")
	}
	key := derive("sha256", plaintext, salt, c.Iterations)
	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", c.Iterations, salt, hex.EncodeToString(key)), nil
}

// Verify reports whether candidate matches digest. Malformed digests never
// match. bcrypt digests from imported accounts are accepted as well.
func (c PasswordCodec) Verify(digest, candidate string) bool {
	if strings.HasPrefix(digest, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(candidate)) == nil
	}

	method, salt, want, err := parseDigest(digest)
	if err != nil {
		return false
	}

	parts := strings.Split(method, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "pbkdf2" {
		return false
	}
	if _, ok := hashes[parts[1]]; !ok {
		return false
	}
	iterations := legacyIterations
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n <= 0 {
			return false
		}
		iterations = n
	}

	got := derive(parts[1], candidate, salt, iterations)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// CheckPasswordPolicy rejects passwords shorter than the minimum length.
func CheckPasswordPolicy(password string) error {
	if utf8.RuneCountInString(password) < constants.MIN_PASSWORD_LENGTH {
		return ErrWeakPassword
	}
	return nil
}

func derive(alg, password, salt string, iterations int) []byte {
	h := hashes[alg]
	return pbkdf2.Key([]byte(password), []byte(salt), iterations, h().Size(), h)
}

func parseDigest(digest string) (method, salt string, key []byte, err error) {
	fields := strings.Split(digest, "$")
	if len(fields) != 3 || fields[0] == "" || fields[1] == "" || fields[2] == "" {
		return "", "", nil, ErrMalformedDigest
	}
	key, err = hex.DecodeString(fields[2])
	if err != nil {
		return "", "", nil, ErrMalformedDigest
	}
	return fields[0], fields[1], key, nil
}

func generateSalt(length int) (string, error) {
	if length <= 0 {
		length = 16
	}
	limit := big.NewInt(int64(len(saltChars)))
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(saltChars[n.Int64()])
	}
	return sb.String(), nil
}
