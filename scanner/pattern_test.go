package scanner

import (
	"reflect"
	"testing"
)

func TestScanBytesFindsNonOverlappingMatches(t *testing.T) {
	data := []byte{0xAA, 0x11, 0x22, 0xAA, 0x11, 0x22, 0xAA}
	pattern := []byte{0xAA, 0x11, 0x22}
	hits := ScanBytes(data, pattern, nil)
	if !reflect.DeepEqual(hits, []int{0, 3}) {
		t.Fatalf("ScanBytes = %v, want [0 3]", hits)
	}
}

func TestScanBytesWithWildcard(t *testing.T) {
	data := []byte{0x48, 0x8B, 0x05, 0xAA, 0xBB, 0xCC, 0xDD}
	pattern := []byte{0x48, 0x8B, 0x05, 0, 0, 0, 0}
	mask := []bool{false, false, false, true, true, true, true}
	hits := ScanBytes(data, pattern, mask)
	if !reflect.DeepEqual(hits, []int{0}) {
		t.Fatalf("ScanBytes = %v, want [0]", hits)
	}
}

func TestScanBytesEmptyPattern(t *testing.T) {
	if hits := ScanBytes([]byte{1, 2, 3}, nil, nil); hits != nil {
		t.Fatalf("ScanBytes with empty pattern = %v, want nil", hits)
	}
}

func TestFindFirstBytesNoMatch(t *testing.T) {
	data := []byte{1, 2, 3}
	if got := FindFirstBytes(data, []byte{9, 9}, nil); got != -1 {
		t.Fatalf("FindFirstBytes = %d, want -1", got)
	}
}

func TestParseIDALiteralAndWildcard(t *testing.T) {
	pattern, mask, ok := ParseIDA("48 8B ?? 45 01")
	if !ok {
		t.Fatal("ParseIDA failed on a well-formed pattern")
	}
	wantPattern := []byte{0x48, 0x8B, 0x00, 0x45, 0x01}
	wantMask := []bool{false, false, true, false, false}
	if !reflect.DeepEqual(pattern, wantPattern) {
		t.Fatalf("pattern = %v, want %v", pattern, wantPattern)
	}
	if !reflect.DeepEqual(mask, wantMask) {
		t.Fatalf("mask = %v, want %v", mask, wantMask)
	}
}

func TestParseIDADoubleQuestionWildcard(t *testing.T) {
	pattern, mask, ok := ParseIDA("90 ? ??")
	if !ok {
		t.Fatal("ParseIDA failed on mixed single/double wildcard tokens")
	}
	if len(pattern) != 3 || !mask[1] || !mask[2] {
		t.Fatalf("pattern = %v, mask = %v, want a 3-byte all-wildcard-after-first pattern", pattern, mask)
	}
}

func TestParseIDAInvalidTokenAborts(t *testing.T) {
	if _, _, ok := ParseIDA("48 ZZ 90"); ok {
		t.Fatal("ParseIDA accepted an invalid hex token")
	}
	if _, _, ok := ParseIDA("48 8 90"); ok {
		t.Fatal("ParseIDA accepted a single-digit literal token")
	}
}

func TestParseIDAEmptyString(t *testing.T) {
	if _, _, ok := ParseIDA(""); ok {
		t.Fatal("ParseIDA accepted an empty string")
	}
	if _, _, ok := ParseIDA("   "); ok {
		t.Fatal("ParseIDA accepted a whitespace-only string")
	}
}

// TestParseIDAIdempotentUnderWhitespace pins spec §8's IDA parser
// idempotence law: whitespace between bytes is decoration, not a
// delimiter, so a spaceless hex string parses identically to its fully
// spaced-out form.
func TestParseIDAIdempotentUnderWhitespace(t *testing.T) {
	noSpaces, maskNoSpaces, ok := ParseIDA("4889??")
	if !ok {
		t.Fatal("ParseIDA failed on a spaceless pattern")
	}
	spaced, maskSpaced, ok := ParseIDA(" 48 89 ?? ")
	if !ok {
		t.Fatal("ParseIDA failed on the equivalent spaced pattern")
	}
	if !reflect.DeepEqual(noSpaces, spaced) {
		t.Fatalf("ParseIDA(%q) pattern = %v, ParseIDA(%q) pattern = %v, want equal", "4889??", noSpaces, " 48 89 ?? ", spaced)
	}
	if !reflect.DeepEqual(maskNoSpaces, maskSpaced) {
		t.Fatalf("ParseIDA(%q) mask = %v, ParseIDA(%q) mask = %v, want equal", "4889??", maskNoSpaces, " 48 89 ?? ", maskSpaced)
	}
}

func TestParseIDARoundTripsScanBytes(t *testing.T) {
	data := []byte{0x10, 0x48, 0x8B, 0x77, 0x99, 0x00}
	pattern, mask, ok := ParseIDA("48 8B ??")
	if !ok {
		t.Fatal("ParseIDA failed unexpectedly")
	}
	hits := ScanBytes(data, pattern, mask)
	if !reflect.DeepEqual(hits, []int{1}) {
		t.Fatalf("ScanBytes(ParseIDA(...)) = %v, want [1]", hits)
	}
}
