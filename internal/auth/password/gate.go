package password

import (
	"crypto/subtle"
	"errors"
	"strings"
)

var ErrInvalidPassword = errors.New("invalid_password")

const encodedPrefix = "$argon2id$"

// Gate checks the shared portal password. The configured secret is either
// plaintext or an encoded Argon2id hash produced by Hash.
type Gate struct {
	secret  string
	hash    portalHash
	hashErr error
}

func NewGate(secret string) *Gate {
	g := &Gate{secret: strings.TrimSpace(secret)}
	if g.Hashed() {
		g.hash, g.hashErr = parseHash(g.secret)
	}
	return g
}

func (g *Gate) Hashed() bool {
	return IsEncoded(g.secret)
}

// Validate fails when the configured hash cannot be decoded, since no
// password would ever pass.
func (g *Gate) Validate() error {
	return g.hashErr
}

func (g *Gate) Check(candidate string) error {
	if g == nil || g.secret == "" || candidate == "" {
		return ErrInvalidPassword
	}
	if g.Hashed() {
		if g.hashErr == nil && g.hash.matches(candidate) {
			return nil
		}
		return ErrInvalidPassword
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(g.secret)) == 1 {
		return nil
	}
	return ErrInvalidPassword
}

func IsEncoded(value string) bool {
	return strings.HasPrefix(value, encodedPrefix)
}
