package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash means PORTAL_PASSWORD looks like an Argon2id hash but
// cannot be decoded.
var ErrMalformedHash = errors.New("malformed_password_hash")

const (
	argonVersion = "v=19"
	saltLen      = 16
)

// cost holds the Argon2id parameters carried in an encoded hash.
type cost struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

// portalCost is used for new hashes. Existing hashes keep their own cost.
var portalCost = cost{memory: 64 * 1024, time: 1, threads: 4, keyLen: 32}

type portalHash struct {
	cost
	salt []byte
	key  []byte
}

func (h portalHash) String() string {
	return fmt.Sprintf("$argon2id$%s$m=%d,t=%d,p=%d$%s$%s",
		argonVersion, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key),
	)
}

func (h portalHash) matches(candidate string) bool {
	check := argon2.IDKey([]byte(candidate), h.salt, h.time, h.memory, h.threads, h.keyLen)
	return subtle.ConstantTimeCompare(h.key, check) == 1
}

// Hash encodes a portal password for PORTAL_PASSWORD.
func Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	h := portalHash{cost: portalCost, salt: salt}
	h.key = argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)
	return h.String(), nil
}

// Verify reports whether password matches the encoded hash. A malformed hash
// never matches.
func Verify(password, encoded string) bool {
	h, err := parseHash(encoded)
	if err != nil {
		return false
	}
	return h.matches(password)
}

// ValidateHash checks that encoded decodes to a usable Argon2id hash.
func ValidateHash(encoded string) error {
	_, err := parseHash(encoded)
	return err
}

func parseHash(encoded string) (portalHash, error) {
	parts := strings.Split(strings.TrimSpace(encoded), "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return portalHash{}, fmt.Errorf("%w: want $argon2id$v=19$m=,t=,p=$salt$key", ErrMalformedHash)
	}
	if parts[2] != argonVersion {
		return portalHash{}, fmt.Errorf("%w: unsupported version %q", ErrMalformedHash, parts[2])
	}

	c, err := parseCost(parts[3])
	if err != nil {
		return portalHash{}, err
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return portalHash{}, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return portalHash{}, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	c.keyLen = uint32(len(key))
	return portalHash{cost: c, salt: salt, key: key}, nil
}

func parseCost(s string) (cost, error) {
	var c cost
	for _, field := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			return cost{}, fmt.Errorf("%w: cost %q", ErrMalformedHash, field)
		}
		bits := 32
		if name == "p" {
			bits = 8
		}
		n, err := strconv.ParseUint(value, 10, bits)
		if err != nil || n == 0 {
			return cost{}, fmt.Errorf("%w: cost %q", ErrMalformedHash, field)
		}
		switch name {
		case "m":
			c.memory = uint32(n)
		case "t":
			c.time = uint32(n)
		case "p":
			c.threads = uint8(n)
		default:
			return cost{}, fmt.Errorf("%w: cost %q", ErrMalformedHash, field)
		}
	}
	if c.memory == 0 || c.time == 0 || c.threads == 0 {
		return cost{}, fmt.Errorf("%w: cost %q", ErrMalformedHash, s)
	}
	return c, nil
}
