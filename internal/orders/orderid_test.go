package orders

import (
	"github.com/stretchr/testify/assert"
	"regexp"
	"testing"
)

var idPattern = regexp.MustCompile(`^ORD-[A-Z]{4}[0-9]-[0-9A-Z]{4}$`)

func TestNewID(t *testing.T) {
	t.Run("uses the last four characters of the national id", func(t *testing.T) {
		id := NewID("30.123.456")
		assert.Regexp(t, idPattern, id)
		assert.Equal(t, "3456", id[len(id)-4:])
	})

	t.Run("pads short national ids", func(t *testing.T) {
		id := NewID("7")
		assert.Regexp(t, idPattern, id)
		assert.Equal(t, "0007", id[len(id)-4:])
	})

	t.Run("random part varies", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			seen[NewID("12345678")] = true
		}
		assert.Greater(t, len(seen), 1)
	})
}
