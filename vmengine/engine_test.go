package vmengine

import (
	"runtime"
	"testing"
)

func requireDarwinARM64(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "darwin" || runtime.GOARCH != "arm64" {
		t.Skip("VM engine integration tests require a live darwin/arm64 task port")
	}
}

func TestSelfConstruction(t *testing.T) {
	requireDarwinARM64(t)

	e, err := Self()
	if err != nil {
		t.Fatalf("Self() error: %v", err)
	}
	if e.PageSize() <= 0 {
		t.Fatalf("PageSize() = %d, want > 0", e.PageSize())
	}
}

func TestPageBase(t *testing.T) {
	e := &Engine{pageSize: 0x4000}
	addr := uint64(0x1000104000 + 0x123)
	got := e.PageBase(addr)
	if got > addr || addr-got >= uint64(e.pageSize) {
		t.Fatalf("PageBase(0x%x) = 0x%x, out of [base, base+pageSize)", addr, got)
	}
	if got&(uint64(e.pageSize)-1) != 0 {
		t.Fatalf("PageBase(0x%x) = 0x%x is not page-aligned", addr, got)
	}
}

// TestScanWriteReadRoundTrip exercises spec §8 scenarios 1 and 6: write
// a known pattern into freshly allocated memory, scan for it, and read
// it back byte-for-byte.
func TestScanWriteReadRoundTrip(t *testing.T) {
	requireDarwinARM64(t)

	e, err := Self()
	if err != nil {
		t.Fatalf("Self() error: %v", err)
	}

	const size = 0x1000
	addr, ok := e.Allocate(size)
	if !ok {
		t.Fatalf("Allocate failed: %v", e.Err())
	}
	defer e.Deallocate(addr, size)

	pattern := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	offset := uint64(0x40)
	if !e.WriteMemory(addr+offset, pattern) {
		t.Fatalf("WriteMemory failed: %v", e.Err())
	}

	got, ok := e.ReadMemory(addr+offset, uint64(len(pattern)))
	if !ok {
		t.Fatalf("ReadMemory failed: %v", e.Err())
	}
	for i := range pattern {
		if got[i] != pattern[i] {
			t.Fatalf("read back %v, want %v", got, pattern)
		}
	}

	e.ScanMemory(AddrRange{Start: addr, End: addr + size}, pattern)
	hits := e.GetAllResults()
	found := false
	for _, h := range hits {
		if h == addr+offset {
			found = true
		}
	}
	if !found {
		t.Fatalf("ScanMemory did not find pattern at 0x%x among %v", addr+offset, hits)
	}
}

func TestNearbySearchRefinement(t *testing.T) {
	requireDarwinARM64(t)

	e, err := Self()
	if err != nil {
		t.Fatalf("Self() error: %v", err)
	}

	const size = 0x1000
	addr, ok := e.Allocate(size)
	if !ok {
		t.Fatalf("Allocate failed: %v", e.Err())
	}
	defer e.Deallocate(addr, size)

	target := []byte{0xCA, 0xFE}
	if !e.WriteMemory(addr+4, target) {
		t.Fatalf("WriteMemory failed: %v", e.Err())
	}

	e.results.Append(RegionHit{RegionBase: addr})
	e.NearbySearch(2, target)
	if e.ResultCount() != 1 || e.GetAllResults()[0] != addr+4 {
		t.Fatalf("NearbySearch(2) = %v, want [0x%x]", e.GetAllResults(), addr+4)
	}
}

func TestErrorLatchAndClear(t *testing.T) {
	requireDarwinARM64(t)

	e, err := Self()
	if err != nil {
		t.Fatalf("Self() error: %v", err)
	}

	if addr, ok := e.Allocate(0); ok {
		t.Fatalf("Allocate(0) returned (0x%x, true), want ok=false", addr)
	}
	if e.Valid() {
		t.Fatal("engine should be invalid after a zero-size allocate")
	}

	// Further operations should no-op while the error is latched.
	if ok := e.WriteMemory(0x1000, []byte{1}); ok {
		t.Fatal("WriteMemory should no-op while error is latched")
	}

	e.Clear()
	if !e.Valid() {
		t.Fatal("engine should be valid after Clear")
	}
}
