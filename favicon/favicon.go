package favicon

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/chainreactors/utils/encode"
	"github.com/rix4uni/favinfo/common"
	"github.com/twmb/murmur3"
)

const wrapAt = 76

// Canonicalize re-encodes raw icon bytes the way shodan prepares them for
// hashing: standard base64, broken into 76 character lines, every line
// newline terminated. Empty input canonicalizes to a single empty line.
// Hashing anything but this exact form gives fingerprints no search engine
// will recognize.
func Canonicalize(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	buf := make([]byte, 0, len(encoded)+len(encoded)/wrapAt+1)
	for len(encoded) > wrapAt {
		buf = append(buf, encoded[:wrapAt]...)
		buf = append(buf, '\n')
		encoded = encoded[wrapAt:]
	}
	buf = append(buf, encoded...)
	buf = append(buf, '\n')
	return buf
}

// Hash is murmur3 x86 32-bit with seed 0, the sum reinterpreted as a
// signed integer. It hashes the block as given, canonicalize first.
func Hash(block []byte) common.Fingerprint {
	return common.Fingerprint(murmur3.Sum32(block))
}

// Mmh3Hash fingerprints raw icon bytes, Hash over Canonicalize.
func Mmh3Hash(data []byte) common.Fingerprint {
	return Hash(Canonicalize(data))
}

func Md5Hash(data []byte) string {
	return encode.Md5Hash(data)
}

func Sha256Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
