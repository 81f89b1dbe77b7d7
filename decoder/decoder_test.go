package decoder

import "testing"

func TestDecodeAdrImmediateBoundaryCases(t *testing.T) {
	tests := []struct {
		name    string
		insn    uint32
		wantOK  bool
		wantImm int64
	}{
		{"adr zero", 0x10000000, true, 0},
		{"adrp zero", 0x90000000, true, 0},
		{"all zero word", 0x00000000, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, imm := DecodeAdrImmediate(tt.insn)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && imm != tt.wantImm {
				t.Fatalf("imm = %d, want %d", imm, tt.wantImm)
			}
		})
	}
}

func TestDecodeLdrStrImmediateBoundaryCases(t *testing.T) {
	tests := []struct {
		name     string
		insn     uint32
		wantOK   bool
		wantImm  int32
	}{
		{"zero offset, size 3 (x8 scale)", 0xF9400000, true, 0},
		{"offset 1 scaled by 8", 0xF9400401, true, 8},
		{"not ldr/str immediate", 0x00000000, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, imm := DecodeLdrStrImmediate(tt.insn)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && imm != tt.wantImm {
				t.Fatalf("imm = %d, want %d", imm, tt.wantImm)
			}
		})
	}
}

func TestDecodeAddSubImmediateNeverFails(t *testing.T) {
	// A zero instruction word is not a real ADD/SUB, but the decoder
	// trusts the caller and happily reports imm=0 (spec §4.1 edge case).
	if got := DecodeAddSubImmediate(0); got != 0 {
		t.Fatalf("imm = %d, want 0", got)
	}

	// ADD x1, x1, #4 (sh=0): 0x91000000 | imm12<<10 | Rn<<5 | Rd
	insn := uint32(0x91000000) | 4<<10 | 1<<5 | 1
	if got := DecodeAddSubImmediate(insn); got != 4 {
		t.Fatalf("imm = %d, want 4", got)
	}

	// ADD x1, x1, #4, LSL #12 (sh=1): imm12 scaled by 4096.
	shifted := uint32(0x91000000) | 1<<22 | 4<<10 | 1<<5 | 1
	if got := DecodeAddSubImmediate(shifted); got != 4<<12 {
		t.Fatalf("imm = %d, want %d", got, 4<<12)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		insn uint32
		want Class
	}{
		{0x10000000, ADR},
		{0x90000000, ADRP},
		{0xF9400000, LDRSTRImm},
		{0x00000000, Unknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.insn); got != tt.want {
			t.Errorf("Classify(0x%08x) = %v, want %v", tt.insn, got, tt.want)
		}
	}
}

// TestAdrpRoundTrip pins the "Decoder round-trip for ADRP" law from
// spec §8: encoding a page-relative count and decoding it back must
// reproduce the original value whenever it fits in a signed 21-bit page
// count.
func TestAdrpRoundTrip(t *testing.T) {
	for _, pageRel := range []int64{0, 1, 5, -1, -3, 1<<20 - 1, -(1 << 20)} {
		insn := EncodeAdrpPageOffset(pageRel)
		ok, imm := DecodeAdrImmediate(insn)
		if !ok {
			t.Fatalf("pageRel=%d: decode failed", pageRel)
		}
		if got := imm >> 12; got != pageRel {
			t.Errorf("pageRel=%d: round trip gave %d", pageRel, got)
		}
	}
}

// TestAdrpAddResolvesAbsoluteAddress pins end-to-end scenario 5 from
// spec §8: ADRP x1, +0x1000 at I, followed by ADD x1, x1, #4, resolves
// to page_base(I) + 0x1000 + 4.
func TestAdrpAddResolvesAbsoluteAddress(t *testing.T) {
	const I = uint64(0x100004000)
	const pageSize = 0x1000

	adrp := EncodeAdrpPageOffset(1) // ADRP x0, +0x1000 (Rd left as 0)
	add := uint32(0x91000000) | 4<<10 | 1<<5 | 1 // ADD x1, x1, #4

	_, adrpImm := DecodeAdrImmediate(adrp)
	addImm := DecodeAddSubImmediate(add)

	pageBase := I &^ uint64(pageSize-1)
	got := pageBase + uint64(adrpImm) + uint64(addImm)
	want := uint64(0x100005004)
	if got != want {
		t.Fatalf("resolved address = 0x%x, want 0x%x", got, want)
	}
}
