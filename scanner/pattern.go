// Package scanner implements masked-byte and IDA-style hex pattern
// scanning over a byte slice (spec §4.4), plus a Scanner type that
// binds that scanning to one located image segment.
package scanner

// ScanBytes returns every non-overlapping offset in data at which
// pattern matches, honoring wildcard (len(pattern) == len(mask), mask[i]
// true means "any byte accepted at this position"). Matches never
// overlap: once a match is recorded at offset i, the next search resumes
// at i+len(pattern) (spec §4.4 find_all).
func ScanBytes(data, pattern []byte, mask []bool) []int {
	if len(pattern) == 0 || len(pattern) > len(data) {
		return nil
	}
	var hits []int
	i := 0
	for i+len(pattern) <= len(data) {
		if matchAt(data, pattern, mask, i) {
			hits = append(hits, i)
			i += len(pattern)
			continue
		}
		i++
	}
	return hits
}

// FindFirstBytes returns the offset of the first match of pattern in
// data, or -1 if there is none.
func FindFirstBytes(data, pattern []byte, mask []bool) int {
	if len(pattern) == 0 || len(pattern) > len(data) {
		return -1
	}
	for i := 0; i+len(pattern) <= len(data); i++ {
		if matchAt(data, pattern, mask, i) {
			return i
		}
	}
	return -1
}

func matchAt(data, pattern []byte, mask []bool, at int) bool {
	for j := range pattern {
		if mask != nil && j < len(mask) && mask[j] {
			continue
		}
		if data[at+j] != pattern[j] {
			return false
		}
	}
	return true
}

// ParseIDA parses an IDA-style hex pattern such as "48 8B ?? 45" into a
// byte pattern and wildcard mask. Whitespace between bytes is entirely
// optional — this is a character scanner, not a whitespace-delimited
// tokenizer: it walks the string skipping spaces, and at each position
// either consumes a hex-digit pair as a literal byte or one or two '?'
// characters as a single wildcard byte. That means "4889??" and
// " 48 89 ?? " parse identically (spec §8's IDA parser idempotence law).
// Any other character aborts the parse, returning ok=false and nil
// slices — there is no partial result (grounded on the original's
// ParseIDAPattern, a space-skipping/isxdigit-pair/'?' character scanner,
// not a tokenizer).
func ParseIDA(s string) (pattern []byte, mask []bool, ok bool) {
	i := 0
	n := len(s)
	for i < n {
		if isSpace(s[i]) {
			i++
			continue
		}
		if s[i] == '?' {
			pattern = append(pattern, 0)
			mask = append(mask, true)
			i++
			if i < n && s[i] == '?' {
				i++
			}
			continue
		}
		if !isHexDigit(s[i]) || i+1 >= n || !isHexDigit(s[i+1]) {
			return nil, nil, false
		}
		hi, _ := hexNibble(s[i])
		lo, _ := hexNibble(s[i+1])
		pattern = append(pattern, hi<<4|lo)
		mask = append(mask, false)
		i += 2
	}
	if len(pattern) == 0 {
		return nil, nil, false
	}
	return pattern, mask, true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
