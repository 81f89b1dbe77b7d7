// Package machkit binds the handful of libSystem/Mach VM and dyld entry
// points the core needs, through github.com/ebitengine/purego so the
// rest of the module stays cgo-free. Every exported function here has a
// direct analogue in spec §6's platform-assumptions list.
//
// Only the darwin/arm64 build actually talks to the kernel; on any other
// host every function returns a zero value and ok=false (or a non-nil
// error), so the rest of the module can be built and unit-tested
// anywhere, with kernel-touching behavior exercised only on-target.
package machkit

// TaskPort names a Mach task (an address space) to operate on.
type TaskPort uint32

// RegionInfo is the basic-info region record spec §3/§4.2 describes:
// protection, inheritance, and the queried region's extent.
type RegionInfo struct {
	Address       uint64
	Size          uint64
	Protection    int32
	MaxProtection int32
	Inheritance   uint32
}

// Protection bit values, matching <mach/vm_prot.h>.
const (
	ProtNone    int32 = 0x00
	ProtRead    int32 = 0x01
	ProtWrite   int32 = 0x02
	ProtExecute int32 = 0x04
)

// vm_flags for mach_vm_allocate: anywhere in the target's address space.
const vmFlagsAnywhere int32 = 0x1
