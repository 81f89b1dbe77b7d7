// Package shortcut implements the composite signature shortcuts of
// spec §4.5: each one locates a code signature with the pattern
// scanner, applies a caller-provided step to land on the instruction of
// interest, reads the instruction word(s) found there with the VM
// engine, and resolves them with the decoder. They exist because "find
// the pattern, then decode what's there" is the single most common
// thing a caller of this toolkit wants to do.
package shortcut

import (
	"github.com/opsprobe/cgprobe/cgperr"
	"github.com/opsprobe/cgprobe/decoder"
	"github.com/opsprobe/cgprobe/scanner"
	"github.com/opsprobe/cgprobe/vmengine"
)

const pageMask = ^uint64(0xFFF)

// Resolver composes a Scanner and the Engine it reads through. A zero
// instruction word read back at any step aborts the shortcut (spec
// §4.5/§9 "zero-instruction sentinel") — it is never a valid
// ADR/ADRP/LDR/STR/ADD encoding in code that was actually assembled,
// and is what a failed or out-of-bounds read silently returns upstream.
type Resolver struct {
	cgperr.Handler

	scanner *scanner.Scanner
	engine  *vmengine.Engine
}

// New binds a Resolver to an already-constructed Scanner and the Engine
// it reads through.
func New(s *scanner.Scanner, e *vmengine.Engine) *Resolver {
	return &Resolver{scanner: s, engine: e}
}

func (r *Resolver) readWord(addr uint64) (uint32, bool) {
	buf, ok := r.engine.ReadMemory(addr, 4)
	if !ok {
		r.Set(cgperr.VMReadFail, "read of instruction word at 0x%x failed", addr)
		return 0, false
	}
	word := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	if word == 0 {
		r.Set(cgperr.InvalidState, "zero instruction word at 0x%x", addr)
		return 0, false
	}
	return word, true
}

// instructionAddr finds the first match of sig and offsets it by step to
// land on the instruction of interest (spec §4.5: "the hit address is
// then offset by a caller-provided step... Let I denote the resulting
// instruction address"). Returns 0 if sig is not found.
func (r *Resolver) instructionAddr(sig string, step int64) uint64 {
	hit := r.scanner.FindFirstIDA(sig)
	if hit == 0 {
		r.Set(cgperr.BinaryNotFound, "pattern %q not found", sig)
		return 0
	}
	return uint64(int64(hit) + step)
}

// FindDirect returns I itself, unresolved — no instruction decoding, for
// signatures that already point straight at data or a call target
// (spec §4.5 find_direct).
func (r *Resolver) FindDirect(sig string, step int64) uint64 {
	if !r.Valid() {
		return 0
	}
	return r.instructionAddr(sig, step)
}

// FindADRL reads [I] as an ADRP and [I+4] as an ADD (immediate),
// resolving page_base(I) + adrp_imm + add_imm12 (spec §4.5 find_adrl).
func (r *Resolver) FindADRL(sig string, step int64) uint64 {
	if !r.Valid() {
		return 0
	}
	i := r.instructionAddr(sig, step)
	if i == 0 {
		return 0
	}
	adrpWord, ok := r.readWord(i)
	if !ok {
		return 0
	}
	addWord, ok := r.readWord(i + 4)
	if !ok {
		return 0
	}
	target, ok := ResolveAdrl(i, adrpWord, addWord)
	if !ok {
		r.Set(cgperr.InvalidState, "0x%x/0x%x at 0x%x is not an ADRP+ADD pair", adrpWord, addWord, i)
		return 0
	}
	return target
}

// ResolveAdrl combines an ADRP instruction word at i with the ADD
// (immediate) word that follows it into page_base(i) + adrp_imm +
// add_imm12. ok is false if the first word isn't ADRP — the decoder
// trusts the caller on ADD/SUB shape (spec §4.1), so this is the pure
// arithmetic core of FindADRL, split out so it can be exercised without
// a live task port.
func ResolveAdrl(i uint64, adrpWord, addWord uint32) (target uint64, ok bool) {
	if decoder.Classify(adrpWord) != decoder.ADRP {
		return 0, false
	}
	adrpOK, adrpImm := decoder.DecodeAdrImmediate(adrpWord)
	if !adrpOK {
		return 0, false
	}
	addImm := decoder.DecodeAddSubImmediate(addWord)
	page := uint64(int64(i&pageMask) + adrpImm)
	return uint64(int64(page) + int64(addImm)), true
}

// FindADRPLdrStr reads [I] as an ADRP and [I+4] as an LDR/STR
// (immediate), resolving page_base(I) + adrp_imm + ldr_imm12 (spec
// §4.5 find_adrp_ldrstr).
func (r *Resolver) FindADRPLdrStr(sig string, step int64) uint64 {
	if !r.Valid() {
		return 0
	}
	i := r.instructionAddr(sig, step)
	if i == 0 {
		return 0
	}
	adrpWord, ok := r.readWord(i)
	if !ok {
		return 0
	}
	ldrWord, ok := r.readWord(i + 4)
	if !ok {
		return 0
	}
	target, ok := ResolveAdrpLdrStr(i, adrpWord, ldrWord)
	if !ok {
		r.Set(cgperr.InvalidState, "0x%x/0x%x at 0x%x is not an ADRP+LDR/STR pair", adrpWord, ldrWord, i)
		return 0
	}
	return target
}

// ResolveAdrpLdrStr combines an ADRP instruction word at i with the
// LDR/STR-immediate word that follows it into page_base(i) + adrp_imm +
// ldr_imm12. ok is false if either word isn't the expected shape.
func ResolveAdrpLdrStr(i uint64, adrpWord, ldrWord uint32) (target uint64, ok bool) {
	if decoder.Classify(adrpWord) != decoder.ADRP {
		return 0, false
	}
	adrpOK, adrpImm := decoder.DecodeAdrImmediate(adrpWord)
	if !adrpOK {
		return 0, false
	}
	if decoder.Classify(ldrWord) != decoder.LDRSTRImm {
		return 0, false
	}
	_, ldrImm := decoder.DecodeLdrStrImmediate(ldrWord)

	page := uint64(int64(i&pageMask) + adrpImm)
	return uint64(int64(page) + int64(ldrImm)), true
}

// FindLdrStr64 reads [I] as a single LDR/STR (immediate) and returns its
// scaled offset directly — not combined with any base address (spec
// §4.5 find_ldrstr64: "((insn >> 10) & 0xFFF) * 8 (raw offset)").
func (r *Resolver) FindLdrStr64(sig string, step int64) uint64 {
	return r.findLdrStrOffset(sig, step)
}

// FindLdrStr32 is the same arithmetic as FindLdrStr64 (spec §4.5: "same
// as above, same arithmetic"): the table gives a fixed ×8 scale for both
// variants regardless of the instruction's own size field, so it is
// deliberately not decoder.DecodeLdrStrImmediate's auto-scaled reading
// (which would scale a 32-bit/size=2 LDR by 4, not 8).
func (r *Resolver) FindLdrStr32(sig string, step int64) uint64 {
	return r.findLdrStrOffset(sig, step)
}

func (r *Resolver) findLdrStrOffset(sig string, step int64) uint64 {
	if !r.Valid() {
		return 0
	}
	i := r.instructionAddr(sig, step)
	if i == 0 {
		return 0
	}
	word, ok := r.readWord(i)
	if !ok {
		return 0
	}
	if decoder.Classify(word) != decoder.LDRSTRImm {
		r.Set(cgperr.InvalidState, "instruction at 0x%x is not LDR/STR immediate", i)
		return 0
	}
	raw := (word >> 10) & 0xFFF
	return uint64(raw) * 8
}
