package util

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	resetCodeMin  = 100000
	resetCodeSpan = 900000
)

// GenerateResetCode returns a uniformly random six-digit code in
// [100000, 999999].
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(resetCodeMin+n.Int64(), 10), nil
}
