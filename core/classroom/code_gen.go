package classroom

import (
	"crypto/rand"
	"strings"
)

// Join codes are typed by hand: uppercase only, and no 0/O or 1/I
// which are easily confused. 32 characters so a random byte masked
// to 5 bits maps onto the alphabet without modulo bias.
const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateCode returns a new random join code.
func GenerateCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("classroom: crypto/rand unavailable: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)&31]
	}
	return string(buf)
}

// NormalizeCode puts a human-entered join code in its canonical form:
// codes are compared and stored uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
