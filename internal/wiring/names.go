package wiring

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeName canonicalizes component and channel names.
// Names arrive from model files in arbitrary Unicode forms; NFC makes
// visually identical names compare equal.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
