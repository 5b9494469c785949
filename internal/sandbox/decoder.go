package sandbox

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DecodeChunk converts a normalized output chunk to UTF-8 text. Invalid byte
// sequences are replaced rather than dropped so log output never disappears.
func DecodeChunk(c Chunk) string {
	if c.Bytes != nil {
		return decodeBytes(c.Bytes)
	}
	return c.Text
}

// Decode converts an arbitrary wire value into UTF-8 text. Transports that
// deliver output over JSON hand us strings, base64-ish byte slices, or plain
// arrays of byte values; all of them decode to the same text.
func Decode(v any) string {
	switch chunk := v.(type) {
	case nil:
		return ""
	case string:
		return chunk
	case []byte:
		return decodeBytes(chunk)
	case Chunk:
		return DecodeChunk(chunk)
	case []int:
		b := make([]byte, len(chunk))
		for i, n := range chunk {
			b[i] = byte(n)
		}
		return decodeBytes(b)
	case []any:
		// JSON-decoded array of numeric byte values.
		b := make([]byte, 0, len(chunk))
		for _, e := range chunk {
			switch n := e.(type) {
			case float64:
				b = append(b, byte(int(n)))
			case json.Number:
				v, err := n.Int64()
				if err != nil {
					return fmt.Sprint(chunk)
				}
				b = append(b, byte(v))
			case int:
				b = append(b, byte(n))
			default:
				return fmt.Sprint(chunk)
			}
		}
		return decodeBytes(b)
	default:
		return fmt.Sprint(v)
	}
}

func decodeBytes(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
