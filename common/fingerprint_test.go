package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintString(t *testing.T) {
	if got := Fingerprint(-1840324437).String(); got != "-1840324437" {
		t.Fatalf("String() got %s want -1840324437", got)
	}
	if got := Fingerprint(81586312).String(); got != "81586312" {
		t.Fatalf("String() got %s want 81586312", got)
	}
	if got := Fingerprint(0).String(); got != "0" {
		t.Fatalf("String() got %s want 0", got)
	}
}

func TestParseFingerprint(t *testing.T) {
	fp, err := ParseFingerprint("-1840324437")
	require.NoError(t, err)
	require.Equal(t, Fingerprint(-1840324437), fp)

	fp, err = ParseFingerprint("2147483647")
	require.NoError(t, err)
	require.Equal(t, Fingerprint(2147483647), fp)

	_, err = ParseFingerprint("2147483648")
	require.Error(t, err)

	_, err = ParseFingerprint("jenkins")
	require.Error(t, err)

	_, err = ParseFingerprint("")
	require.Error(t, err)
}
