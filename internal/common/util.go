package common

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeRandBase64String generates size random bytes and returns them encoded
// with standard padded base64.
func MakeRandBase64String(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	defer WipeByteArray(b)
	return base64.StdEncoding.EncodeToString(b), nil
}

// WipeByteArray overwrites b with zeros. A nil slice is ignored.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
