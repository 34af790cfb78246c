package snapshot

import (
	"fmt"
	"strings"
	"time"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

// IDTimeFormat is the timestamp part of a backup id. It sorts lexicographically
// and is safe on every filesystem.
const IDTimeFormat = "2006-01-02T15-04-05.000Z"

const maxLabelLen = 64

// MakeID derives a backup id from its creation time and optional label.
func MakeID(createdAt time.Time, label string) string {
	id := createdAt.UTC().Format(IDTimeFormat)
	if l := SanitizeLabel(label); l != "" {
		id += "_" + l
	}
	return id
}

// SanitizeLabel keeps letters, digits, '.', '-' and '_', replaces runs of
// anything else with '-', and trims the result.
func SanitizeLabel(label string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			dash = false
		case !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-.")
	if len(out) > maxLabelLen {
		out = strings.TrimRight(out[:maxLabelLen], "-.")
	}
	return out
}

// checkID rejects ids that could escape the store root or name internal entries.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.HasPrefix(id, ".") || strings.ContainsAny(id, `/\:`) {
		return fmt.Errorf("%w: invalid backup id %q", types.ErrNotFound, id)
	}
	return nil
}
