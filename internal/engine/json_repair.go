package engine

import "strings"

type scanState int

const (
	outsideString scanState = iota
	insideString
	escaped
)

// RepairJSON fixes the two mistakes chat models make most often: raw control
// characters inside string literals and trailing commas before } or ].
// Structure outside string literals is left as is.
func RepairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	state := outsideString
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch state {
		case outsideString:
			switch r {
			case '"':
				state = insideString
			case ',':
				if closesNext(runes, i+1) {
					continue
				}
			}
			b.WriteRune(r)

		case insideString:
			switch {
			case r == '\\':
				state = escaped
				b.WriteRune(r)
			case r == '"':
				state = outsideString
				b.WriteRune(r)
			case r == '\n':
				b.WriteString(`\n`)
			case r == '\r':
				b.WriteString(`\r`)
			case r == '\t':
				b.WriteString(`\t`)
			case r < 0x20:
				b.WriteRune(' ')
			default:
				b.WriteRune(r)
			}

		case escaped:
			state = insideString
			b.WriteRune(r)
		}
	}
	return b.String()
}

// closesNext reports whether the next non-space rune from i closes an object or array.
func closesNext(runes []rune, i int) bool {
	for ; i < len(runes); i++ {
		switch runes[i] {
		case ' ', '\n', '\r', '\t':
			continue
		case '}', ']':
			return true
		default:
			return false
		}
	}
	return false
}
