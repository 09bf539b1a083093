package password

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// phc is a decoded argon2id hash string.
type phc struct {
	params Params
	salt   []byte
	key    []byte
}

func (e phc) derive(password string) []byte {
	p := e.params
	return argon2.IDKey([]byte(password), e.salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
}

func (e phc) String() string {
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, e.params.Memory, e.params.Iterations, e.params.Parallelism,
		b64.EncodeToString(e.salt), b64.EncodeToString(e.key))
}

func parsePHC(s string) (phc, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	f := strings.Split(s, "$")
	if len(f) != 6 || f[0] != "" || f[1] != "argon2id" {
		return phc{}, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(f[2], "v=%d", &version); err != nil {
		return phc{}, ErrInvalidHash
	}
	if version != argon2.Version {
		return phc{}, ErrIncompatibleVersion
	}

	var e phc
	if _, err := fmt.Sscanf(f[3], "m=%d,t=%d,p=%d", &e.params.Memory, &e.params.Iterations, &e.params.Parallelism); err != nil {
		return phc{}, ErrInvalidHash
	}
	var err error
	if e.salt, err = base64.RawStdEncoding.DecodeString(f[4]); err != nil {
		return phc{}, ErrInvalidHash
	}
	if e.key, err = base64.RawStdEncoding.DecodeString(f[5]); err != nil || len(e.key) == 0 {
		return phc{}, ErrInvalidHash
	}
	e.params.SaltLength = uint32(len(e.salt))
	e.params.KeyLength = uint32(len(e.key))
	return e, nil
}
