package workflow

import (
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/comfyscope/pkg/png"
)

// Scan returns the decoded, trimmed text of every tEXt and iTXt chunk in order.
//
// Payloads are decoded as UTF-8 with each maximal invalid subsequence
// replaced by one U+FFFD, the way browsers decode text.
// The text is not interpreted: keyword, separator and value are returned
// together, and non-workflow chunks are filtered later by [Repair].
func Scan(chunks []png.Chunk) []string {
	var texts []string
	for _, c := range chunks {
		if c.Name != png.ChunkText && c.Name != png.ChunkIText {
			continue
		}
		texts = append(texts, strings.TrimFunc(decodeUTF8(c.Data), isJSSpace))
	}
	return texts
}

// decodeUTF8 converts b to a valid string.
func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			sb.WriteRune(utf8.RuneError)
			b = b[invalidSubpart(b):]
			continue
		}
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}

// invalidSubpart returns the length of the maximal prefix of b that starts
// a well-formed sequence but does not complete one. It is at least 1.
func invalidSubpart(b []byte) int {
	lo, hi := byte(0x80), byte(0xBF)
	var need int
	switch c := b[0]; {
	case c >= 0xC2 && c <= 0xDF:
		need = 1
	case c == 0xE0:
		need, lo = 2, 0xA0
	case c == 0xED:
		need, hi = 2, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		need = 2
	case c == 0xF0:
		need, lo = 3, 0x90
	case c == 0xF4:
		need, hi = 3, 0x8F
	case c >= 0xF1 && c <= 0xF3:
		need = 3
	default:
		return 1
	}

	n := 1
	for ; n <= need && n < len(b); n++ {
		if b[n] < lo || b[n] > hi {
			break
		}
		lo, hi = 0x80, 0xBF
	}
	return n
}
