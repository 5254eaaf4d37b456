package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%*"

// GenerateTempPassword returns a random password for newly registered reader
// identities. Ambiguous characters (0, O, 1, l, I) are excluded.
func GenerateTempPassword(length int) (string, error) {
	return gonanoid.Generate(tempPasswordAlphabet, length)
}
