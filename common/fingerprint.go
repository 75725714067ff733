package common

import (
	"strconv"

	"github.com/pkg/errors"
)

// Fingerprint is a shodan-style favicon hash, the murmur3 sum of the
// canonicalized icon interpreted as a signed 32-bit integer.
type Fingerprint int32

func (f Fingerprint) String() string {
	return strconv.FormatInt(int64(f), 10)
}

func ParseFingerprint(s string) (Fingerprint, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid fingerprint %q", s)
	}
	return Fingerprint(n), nil
}
