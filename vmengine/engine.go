// Package vmengine implements the VM Engine from spec §4.2: ranged
// scanning of a task's address space, word-sized reads/writes, and the
// allocate/deallocate/protect/query primitives against the kernel VM
// facilities, backed by internal/machkit.
//
// An Engine is not safe for concurrent use (spec §5) — construct one per
// goroutine if you need parallelism.
package vmengine

import (
	"github.com/opsprobe/cgprobe/cgperr"
	"github.com/opsprobe/cgprobe/internal/config"
	"github.com/opsprobe/cgprobe/internal/machkit"
	"github.com/opsprobe/cgprobe/internal/platform"
)

// AddrRange is a half-open [Start, End) range over 64-bit addresses.
type AddrRange struct {
	Start uint64
	End   uint64
}

// Size returns End - Start.
func (r AddrRange) Size() uint64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Engine owns a task port and a result set, and issues the VM
// operations of spec §4.2. The zero value is not usable; construct with
// New.
type Engine struct {
	cgperr.Handler

	task     machkit.TaskPort
	pageSize int
	results  ResultSet
}

// New constructs an Engine bound to task. It fails fast with a plain Go
// error (not a latched cgperr state, since there is no Engine yet to
// latch it on) if the host isn't arm64/darwin or the page size can't be
// determined.
func New(task machkit.TaskPort) (*Engine, error) {
	if err := platform.RequireSupported(); err != nil {
		return nil, err
	}
	pageSize, ok := config.PageSizeOverride()
	if !ok {
		sz, err := machkit.PageSize()
		if err != nil {
			return nil, err
		}
		pageSize = sz
	}
	return &Engine{task: task, pageSize: pageSize}, nil
}

// Self constructs an Engine for the calling process's own task.
func Self() (*Engine, error) {
	if port, ok := config.TaskPortOverride(); ok {
		return New(machkit.TaskPort(port))
	}
	return New(machkit.MachTaskSelf())
}

// PageSize returns the page size captured at construction.
func (e *Engine) PageSize() int {
	return e.pageSize
}

// PageBase returns addr rounded down to the containing page boundary.
func (e *Engine) PageBase(addr uint64) uint64 {
	return pageBase(addr, uint64(e.pageSize))
}

func pageBase(addr, pageSize uint64) uint64 {
	return addr &^ (pageSize - 1)
}

// ScanMemory walks range, comparing every readable byte window to
// target and appending a RegionHit for each match (spec §4.2
// scan_memory). The result set only grows. A region that cannot be read
// is skipped; a failed region query ends the walk. Neither is latched
// (spec §7).
func (e *Engine) ScanMemory(r AddrRange, target []byte) {
	if !e.Valid() {
		return
	}
	if len(target) == 0 {
		e.Set(cgperr.InvalidArgument, "scan target must be non-empty")
		return
	}

	address := r.Start
	for address < r.End {
		info, ok := machkit.Region(e.task, address)
		if !ok {
			// No more mapped regions at or above address (the kernel
			// reports KERN_INVALID_ADDRESS once the walk runs off the
			// top of the address space) — nothing further to scan.
			break
		}
		if info.Address >= r.End {
			break
		}

		buf, ok := machkit.ReadOverwrite(e.task, info.Address, info.Size)
		if !ok {
			address = info.Address + info.Size
			continue
		}

		bytesRead := uint64(len(buf))
		if bytesRead > info.Size {
			bytesRead = info.Size
		}

		n := uint64(len(target))
		if bytesRead >= n {
			for i := uint64(0); i <= bytesRead-n; i++ {
				if bytesEqual(buf[i:i+n], target) {
					e.results.Append(RegionHit{
						RegionBase: info.Address + i,
						Slide:      []uint32{uint32(i)},
					})
				}
			}
		}

		address = info.Address + info.Size
	}
}

// NearbySearch refines the current result set: for every existing hit
// at base b, probes len(target)-byte reads at b + i*len(target) for
// i in [-windowCount, windowCount], and replaces the result set with
// whatever matches (spec §4.2 nearby_search).
func (e *Engine) NearbySearch(windowCount int, target []byte) {
	if !e.Valid() {
		return
	}
	if windowCount <= 0 {
		e.Set(cgperr.InvalidArgument, "window count must be positive")
		return
	}
	if len(target) == 0 {
		e.Set(cgperr.InvalidArgument, "search target must be non-empty")
		return
	}

	n := uint64(len(target))
	var next []RegionHit
	for _, hit := range e.results.Hits() {
		base := hit.RegionBase
		for i := -windowCount; i <= windowCount; i++ {
			addr := uint64(int64(base) + int64(i)*int64(n))
			buf, ok := machkit.ReadOverwrite(e.task, addr, n)
			if !ok {
				continue
			}
			if bytesEqual(buf, target) {
				next = append(next, RegionHit{RegionBase: addr})
			}
		}
	}
	e.results.Replace(next)
}

// SearchByAddress reads len(target) bytes at addr and reports whether
// they equal target.
func (e *Engine) SearchByAddress(addr uint64, target []byte) bool {
	if !e.Valid() || len(target) == 0 {
		return false
	}
	buf, ok := machkit.ReadOverwrite(e.task, addr, uint64(len(target)))
	if !ok {
		return false
	}
	return bytesEqual(buf, target)
}

// ReadMemory reads exactly n bytes at addr, or returns ok=false on
// partial read or kernel failure (latching VMReadFail).
func (e *Engine) ReadMemory(addr uint64, n uint64) (data []byte, ok bool) {
	if !e.Valid() {
		return nil, false
	}
	if n == 0 {
		e.Set(cgperr.InvalidArgument, "read length must be non-zero")
		return nil, false
	}
	buf, readOK := machkit.ReadOverwrite(e.task, addr, n)
	if !readOK {
		e.Set(cgperr.VMReadFail, "read of %d bytes at 0x%x failed", n, addr)
		return nil, false
	}
	return buf, true
}

// WriteMemory writes data to addr.
func (e *Engine) WriteMemory(addr uint64, data []byte) bool {
	if !e.Valid() {
		return false
	}
	if len(data) == 0 {
		e.Set(cgperr.InvalidArgument, "write data must be non-empty")
		return false
	}
	if !machkit.Write(e.task, addr, data) {
		e.Set(cgperr.VMWriteFail, "write of %d bytes at 0x%x failed", len(data), addr)
		return false
	}
	return true
}

// Allocate maps size bytes anywhere in the task's address space.
func (e *Engine) Allocate(size uint64) (addr uint64, ok bool) {
	if !e.Valid() {
		return 0, false
	}
	if size == 0 {
		e.Set(cgperr.InvalidArgument, "allocation size must be non-zero")
		return 0, false
	}
	addr, allocOK := machkit.Allocate(e.task, size)
	if !allocOK {
		e.Set(cgperr.AllocationFail, "allocate %d bytes failed", size)
		return 0, false
	}
	return addr, true
}

// Deallocate releases a prior allocation.
func (e *Engine) Deallocate(addr uint64, size uint64) bool {
	if !e.Valid() {
		return false
	}
	if !machkit.Deallocate(e.task, addr, size) {
		e.Set(cgperr.VMDeallocateFail, "deallocate %d bytes at 0x%x failed", size, addr)
		return false
	}
	return true
}

// Protect sets the protection on [addr, addr+size). Callers that need
// to mutate RX pages must flip to RWX, write, then restore RX
// themselves (spec §4.2/§5) — this primitive does not sequence that.
func (e *Engine) Protect(addr uint64, size uint64, prot int32) bool {
	if !e.Valid() {
		return false
	}
	if !machkit.Protect(e.task, addr, size, prot) {
		e.Set(cgperr.VMProtectFail, "protect %d bytes at 0x%x to %d failed", size, addr, prot)
		return false
	}
	return true
}

// Query returns the size, protection, and inheritance of the region
// covering addr.
func (e *Engine) Query(addr uint64) (size uint64, prot int32, inheritance uint32, ok bool) {
	if !e.Valid() {
		return 0, 0, 0, false
	}
	info, regionOK := machkit.Region(e.task, addr)
	if !regionOK {
		e.Set(cgperr.VMQueryFail, "region query at 0x%x failed", addr)
		return 0, 0, 0, false
	}
	return info.Size, info.Protection, info.Inheritance, true
}

// InvalidateInstructionCache invalidates the I-cache for [addr, addr+size)
// after an in-place code patch (spec §5's required last step of the
// protection-flip sequence; the engine exposes it but does not call it
// automatically).
func (e *Engine) InvalidateInstructionCache(addr uint64, size uint64) {
	machkit.InvalidateInstructionCache(uintptr(addr), uintptr(size))
}

// GetAllResults returns every hit's absolute address, in insertion
// order. Returns an empty slice if the engine is in an error state.
func (e *Engine) GetAllResults() []uint64 {
	if !e.Valid() {
		return nil
	}
	return e.results.All()
}

// GetFirstNResults returns up to n hit addresses, in insertion order.
func (e *Engine) GetFirstNResults(n int) []uint64 {
	if !e.Valid() {
		return nil
	}
	return e.results.First(n)
}

// ResultCount returns the number of hits currently held.
func (e *Engine) ResultCount() int {
	return e.results.Count()
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
