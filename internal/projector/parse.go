package projector

import (
	"strings"
	"unicode"
)

const (
	defaultJuz  = 1
	defaultPage = 1
	juzPrefix   = "Juz "
)

// ParseJuz reads a juz label such as "Juz 5". A bare positive integer is
// accepted too; anything else yields 1.
func ParseJuz(raw string) int {
	n, _ := parseJuz(raw)
	return n
}

// ParsePage reads the leading positive integer of raw, or 1.
func ParsePage(raw string) int {
	n, _ := parsePage(raw)
	return n
}

func parseJuz(raw string) (int, bool) {
	n, ok := parsePage(strings.Replace(strings.TrimSpace(raw), juzPrefix, "", 1))
	if !ok {
		return defaultJuz, false
	}
	return n, true
}

func parsePage(raw string) (int, bool) {
	n, ok := leadingInt(strings.TrimSpace(raw))
	if !ok || n <= 0 {
		return defaultPage, false
	}
	return n, true
}

// leadingInt parses the decimal digits at the start of s, ignoring any tail.
func leadingInt(s string) (int, bool) {
	n, digits := 0, 0
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			break
		}
		if n > (1<<31)/10 {
			return 0, false
		}
		n = n*10 + int(r-'0')
		digits++
	}
	return n, digits > 0
}
