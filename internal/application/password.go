package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidPasswordHash         = errors.New("invalid password hash format")
	ErrIncompatiblePasswordVersion = errors.New("incompatible password hash version")
	ErrPasswordMismatch            = errors.New("password does not match")
)

// Argon2idParams tunes the key derivation used for staff passwords.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// encodedPassword is the decoded form of a PHC string:
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
type encodedPassword struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func (e encodedPassword) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, e.params.Memory, e.params.Iterations, e.params.Parallelism,
		enc.EncodeToString(e.salt), enc.EncodeToString(e.key))
}

func (e encodedPassword) derive(password string) []byte {
	return argon2.IDKey([]byte(password), e.salt, e.params.Iterations, e.params.Memory, e.params.Parallelism, uint32(len(e.key)))
}

func parseEncodedPassword(value string) (encodedPassword, error) {
	fields := strings.Split(value, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return encodedPassword{}, ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return encodedPassword{}, fmt.Errorf("%w: %v", ErrInvalidPasswordHash, err)
	}
	if version != argon2.Version {
		return encodedPassword{}, ErrIncompatiblePasswordVersion
	}

	var out encodedPassword
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &out.params.Memory, &out.params.Iterations, &out.params.Parallelism); err != nil {
		return encodedPassword{}, fmt.Errorf("%w: %v", ErrInvalidPasswordHash, err)
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return encodedPassword{}, fmt.Errorf("%w: salt: %v", ErrInvalidPasswordHash, err)
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil || len(out.key) == 0 {
		return encodedPassword{}, fmt.Errorf("%w: key", ErrInvalidPasswordHash)
	}
	out.params.SaltLength = uint32(len(out.salt))
	out.params.KeyLength = uint32(len(out.key))
	return out, nil
}

// CreatePasswordHash derives an argon2id hash in PHC string format.
func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	encoded := encodedPassword{params: params, salt: make([]byte, params.SaltLength)}
	if _, err := rand.Read(encoded.salt); err != nil {
		return "", err
	}
	encoded.key = argon2.IDKey([]byte(password), encoded.salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	return encoded.String(), nil
}

// VerifyPassword checks password against a hash produced by CreatePasswordHash.
func VerifyPassword(hashedPassword, password string) error {
	encoded, err := parseEncodedPassword(hashedPassword)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(encoded.key, encoded.derive(password)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
