// Command cgprobe-demo exercises the library end to end against the
// calling process's own task: allocate a page, write a pattern into it,
// scan for it, refine with a nearby search, then locate this binary's
// own __TEXT segment and try a masked-byte scan over it.
package main

import (
	"fmt"
	"os"

	"github.com/opsprobe/cgprobe/internal/platform"
	"github.com/opsprobe/cgprobe/locator"
	"github.com/opsprobe/cgprobe/scanner"
	"github.com/opsprobe/cgprobe/vmengine"
)

func main() {
	if err := platform.RequireSupported(); err != nil {
		fmt.Fprintln(os.Stderr, "cgprobe-demo:", err)
		os.Exit(1)
	}

	e, err := vmengine.Self()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cgprobe-demo: construct engine:", err)
		os.Exit(1)
	}

	const size = 0x1000
	addr, ok := e.Allocate(size)
	if !ok {
		fmt.Fprintln(os.Stderr, "cgprobe-demo: allocate:", e.Err())
		os.Exit(1)
	}
	defer e.Deallocate(addr, size)

	pattern := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	offset := uint64(0x80)
	if !e.WriteMemory(addr+offset, pattern) {
		fmt.Fprintln(os.Stderr, "cgprobe-demo: write:", e.Err())
		os.Exit(1)
	}

	e.ScanMemory(vmengine.AddrRange{Start: addr, End: addr + size}, pattern)
	fmt.Printf("scan_memory found %d hit(s): %x\n", e.ResultCount(), e.GetAllResults())

	e.NearbySearch(1, pattern)
	fmt.Printf("nearby_search refined to %d hit(s): %x\n", e.ResultCount(), e.GetAllResults())

	desc, ok := locator.Locate("cgprobe-demo")
	if !ok {
		fmt.Println("cgprobe-demo: could not locate own image by name, skipping segment scan")
		return
	}

	s := scanner.New(e, "cgprobe-demo", "__TEXT")
	if !s.Valid() {
		fmt.Fprintln(os.Stderr, "cgprobe-demo: resolve __TEXT:", s.Err())
		return
	}
	fmt.Printf("__TEXT segment: [0x%x, 0x%x) (slide 0x%x)\n", s.Segment().Start, s.Segment().End, desc.Slide)

	hit := s.FindFirstIDA("FF 83 ?? AD")
	if hit == 0 {
		fmt.Println("pattern not present in __TEXT")
		return
	}
	fmt.Printf("first match at 0x%x\n", hit)
}
