//go:build !(darwin && arm64)

package machkit

import (
	"fmt"
)

// PageSize always fails off-target; callers should have already rejected
// construction via internal/platform before reaching here.
func PageSize() (int, error) {
	return 0, fmt.Errorf("machkit: unsupported on this platform")
}

func MachTaskSelf() TaskPort { return 0 }

func Region(task TaskPort, addr uint64) (RegionInfo, bool) { return RegionInfo{}, false }

func ReadOverwrite(task TaskPort, addr uint64, size uint64) ([]byte, bool) { return nil, false }

func Write(task TaskPort, addr uint64, data []byte) bool { return false }

func Allocate(task TaskPort, size uint64) (uint64, bool) { return 0, false }

func Deallocate(task TaskPort, addr uint64, size uint64) bool { return false }

func Protect(task TaskPort, addr uint64, size uint64, protection int32) bool { return false }

func ImageCount() uint32 { return 0 }

func ImageName(i uint32) string { return "" }

func ImageHeader(i uint32) uintptr { return 0 }

func ImageSlide(i uint32) uintptr { return 0 }

func InvalidateInstructionCache(addr uintptr, size uintptr) {}
