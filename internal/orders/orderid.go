package orders

import (
	"math/rand/v2"
	"strings"
)

const idLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewID builds ORD-<4 letters><1 digit>-<last 4 of the buyer's national ID>.
func NewID(dni string) string {
	var b strings.Builder
	b.WriteString("ORD-")
	for i := 0; i < 4; i++ {
		b.WriteByte(idLetters[rand.IntN(len(idLetters))])
	}
	b.WriteByte(byte('0' + rand.IntN(10)))
	b.WriteByte('-')
	b.WriteString(dniSuffix(dni))
	return b.String()
}

func dniSuffix(dni string) string {
	var digits []byte
	for i := 0; i < len(dni); i++ {
		c := dni[i]
		if (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
			digits = append(digits, c)
		}
	}
	s := strings.ToUpper(string(digits))
	if len(s) >= 4 {
		return s[len(s)-4:]
	}
	return strings.Repeat("0", 4-len(s)) + s
}
