package masking

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/dchest/siphash"
	"golang.org/x/crypto/sha3"
)

var hashFunctions = map[string]func(salt []byte) hash.Hash{
	"md5":      func([]byte) hash.Hash { return md5.New() },
	"sha1":     func([]byte) hash.Hash { return sha1.New() },
	"sha256":   func([]byte) hash.Hash { return sha256.New() },
	"sha512":   func([]byte) hash.Hash { return sha512.New() },
	"sha3-224": func([]byte) hash.Hash { return sha3.New224() },
	"sha3-256": func([]byte) hash.Hash { return sha3.New256() },
	"sha3-384": func([]byte) hash.Hash { return sha3.New384() },
	"sha3-512": func([]byte) hash.Hash { return sha3.New512() },
	// siphash is keyed: the salt is stretched into the 16 byte key
	"siphash": func(salt []byte) hash.Hash { return siphash.New(sha3.New224().Sum(salt)[:16]) },
}

// newHash replaces the value with the hex digest of salt+value
func newHash(params Params) (Transformer, error) {
	if err := params.allow("function", "salt", "max_length"); err != nil {
		return nil, err
	}
	function, err := params.String("function", "sha256")
	if err != nil {
		return nil, err
	}
	newHasher, ok := hashFunctions[strings.ToLower(function)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown hash function %q", ErrInvalidParams, function)
	}
	saltHex, err := params.String("salt", "")
	if err != nil {
		return nil, err
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, fmt.Errorf("%w: salt must be hex encoded: %v", ErrInvalidParams, err)
	}
	maxLength, err := params.Int("max_length", 0)
	if err != nil {
		return nil, err
	}
	if maxLength < 0 {
		return nil, fmt.Errorf("%w: max_length must not be negative", ErrInvalidParams)
	}

	keyed := strings.EqualFold(function, "siphash")
	return nullSafe(func(value interface{}) (interface{}, error) {
		s, err := text(value)
		if err != nil {
			return nil, err
		}
		h := newHasher(salt)
		if !keyed {
			h.Write(salt)
		}
		h.Write([]byte(s))
		digest := hex.EncodeToString(h.Sum(nil))
		if maxLength > 0 && len(digest) > maxLength {
			digest = digest[:maxLength]
		}
		return digest, nil
	}), nil
}
