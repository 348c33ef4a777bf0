package conv

const hexd = "0123456789ABCDEF"

// BytesHex renders b as space-separated uppercase byte pairs, e.g. "A1 0C 08".
func BytesHex(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out := make([]byte, 0, len(b)*3-1)
	for i, v := range b {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, hexd[v>>4], hexd[v&0xF])
	}
	return string(out)
}

// ParseHexBytes parses pairs of hex digits, ignoring spaces, colons, commas
// and an optional 0x prefix on each group. ok is false on odd digit counts
// or foreign characters.
func ParseHexBytes(s string) (out []byte, ok bool) {
	var hi byte
	half := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ' || c == ':' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			if half {
				return nil, false
			}
			continue
		case c == '0' && i+1 < len(s) && (s[i+1] == 'x' || s[i+1] == 'X') && !half:
			i++
			continue
		}
		v, good := hexVal(c)
		if !good {
			return nil, false
		}
		if !half {
			hi = v
			half = true
			continue
		}
		out = append(out, hi<<4|v)
		half = false
	}
	if half {
		return nil, false
	}
	return out, true
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
