//go:build darwin && arm64

package machkit

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"
)

// Mach/dyld C-ABI types, named after their <mach/...> typedefs so the
// purego binding signatures below read the same as the headers.
type (
	kernReturnT        = int32
	vmMapT             = uint32
	machVmAddressT     = uint64
	machVmSizeT        = uint64
	machMsgTypeNumberT = uint32
	vmRegionFlavorT    = int32
	vmProtT            = int32
	vmInheritT         = uint32
	booleanT           = int32
)

const (
	vmRegionBasicInfo64      vmRegionFlavorT    = 9
	vmRegionBasicInfo64Count machMsgTypeNumberT = 9 // sizeof(vm_region_basic_info_data_64_t)/4
)

// vmRegionBasicInfo64 follows the field order of struct
// vm_region_basic_info_64 from <mach/vm_region.h>. The C struct is packed
// to 4-byte alignment; Go aligns Offset to 8 bytes, so only the leading
// 32-bit fields (through Reserved) sit at the C offsets. Region reads
// only Protection, MaxProtection and Inheritance.
type vmRegionBasicInfo64 struct {
	Protection     vmProtT
	MaxProtection  vmProtT
	Inheritance    vmInheritT
	Shared         booleanT
	Reserved       booleanT
	Offset         uint64
	Behavior       int32
	UserWiredCount uint16
}

var (
	machTaskSelfFn func() vmMapT

	machVmRegionFn func(
		vmMapT,
		*machVmAddressT,
		*machVmSizeT,
		vmRegionFlavorT,
		unsafe.Pointer,
		*machMsgTypeNumberT,
		*vmMapT,
	) kernReturnT

	machVmReadOverwriteFn func(
		vmMapT,
		machVmAddressT,
		machVmSizeT,
		uintptr,
		*machVmSizeT,
	) kernReturnT

	machVmWriteFn func(
		vmMapT,
		machVmAddressT,
		uintptr,
		machMsgTypeNumberT,
	) kernReturnT

	machVmAllocateFn func(
		vmMapT,
		*machVmAddressT,
		machVmSizeT,
		int32,
	) kernReturnT

	machVmDeallocateFn func(
		vmMapT,
		machVmAddressT,
		machVmSizeT,
	) kernReturnT

	machVmProtectFn func(
		vmMapT,
		machVmAddressT,
		machVmSizeT,
		booleanT,
		vmProtT,
	) kernReturnT

	dyldImageCountFn           func() uint32
	dyldGetImageNameFn         func(uint32) string
	dyldGetImageHeaderFn       func(uint32) uintptr
	dyldGetImageVmaddrSlideFn  func(uint32) uintptr

	sysIcacheInvalidateFn func(uintptr, uintptr)
)

func init() {
	kernel, err := purego.Dlopen("/usr/lib/system/libsystem_kernel.dylib", purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return
	}
	purego.RegisterLibFunc(&machTaskSelfFn, kernel, "mach_task_self")
	purego.RegisterLibFunc(&machVmRegionFn, kernel, "mach_vm_region")
	purego.RegisterLibFunc(&machVmReadOverwriteFn, kernel, "mach_vm_read_overwrite")
	purego.RegisterLibFunc(&machVmWriteFn, kernel, "mach_vm_write")
	purego.RegisterLibFunc(&machVmAllocateFn, kernel, "mach_vm_allocate")
	purego.RegisterLibFunc(&machVmDeallocateFn, kernel, "mach_vm_deallocate")
	purego.RegisterLibFunc(&machVmProtectFn, kernel, "mach_vm_protect")

	if dyld, err := purego.Dlopen("/usr/lib/system/libdyld.dylib", purego.RTLD_NOW|purego.RTLD_GLOBAL); err == nil {
		purego.RegisterLibFunc(&dyldImageCountFn, dyld, "_dyld_image_count")
		purego.RegisterLibFunc(&dyldGetImageNameFn, dyld, "_dyld_get_image_name")
		purego.RegisterLibFunc(&dyldGetImageHeaderFn, dyld, "_dyld_get_image_header")
		purego.RegisterLibFunc(&dyldGetImageVmaddrSlideFn, dyld, "_dyld_get_image_vmaddr_slide")
	}

	if plat, err := purego.Dlopen("/usr/lib/system/libsystem_platform.dylib", purego.RTLD_NOW|purego.RTLD_GLOBAL); err == nil {
		purego.RegisterLibFunc(&sysIcacheInvalidateFn, plat, "sys_icache_invalidate")
	}
}

// PageSize returns the process-wide page size.
func PageSize() (int, error) {
	sz := unix.Getpagesize()
	if sz <= 0 {
		return 0, fmt.Errorf("machkit: getpagesize returned %d", sz)
	}
	return sz, nil
}

// MachTaskSelf returns the calling process's own task port.
func MachTaskSelf() TaskPort {
	if machTaskSelfFn == nil {
		return 0
	}
	return TaskPort(machTaskSelfFn())
}

// Region queries the basic-info region record covering addr, the way
// vm_region_64 does: address is an in/out parameter that the kernel may
// advance to the next mapped region at or after the requested address.
func Region(task TaskPort, addr uint64) (info RegionInfo, ok bool) {
	if machVmRegionFn == nil {
		return RegionInfo{}, false
	}
	var raw vmRegionBasicInfo64
	var size machVmSizeT
	var objName vmMapT
	count := vmRegionBasicInfo64Count
	address := machVmAddressT(addr)

	kr := machVmRegionFn(vmMapT(task), &address, &size, vmRegionBasicInfo64, unsafe.Pointer(&raw), &count, &objName)
	if kr != 0 {
		return RegionInfo{}, false
	}
	return RegionInfo{
		Address:       uint64(address),
		Size:          uint64(size),
		Protection:    raw.Protection,
		MaxProtection: raw.MaxProtection,
		Inheritance:   uint32(raw.Inheritance),
	}, true
}

// ReadOverwrite reads exactly size bytes from the task at addr.
func ReadOverwrite(task TaskPort, addr uint64, size uint64) ([]byte, bool) {
	if machVmReadOverwriteFn == nil || size == 0 {
		return nil, false
	}
	buf := make([]byte, size)
	var outSize machVmSizeT
	kr := machVmReadOverwriteFn(vmMapT(task), machVmAddressT(addr), machVmSizeT(size), uintptr(unsafe.Pointer(&buf[0])), &outSize)
	if kr != 0 || uint64(outSize) != size {
		return nil, false
	}
	return buf, true
}

// Write writes data into the task at addr.
func Write(task TaskPort, addr uint64, data []byte) bool {
	if machVmWriteFn == nil || len(data) == 0 {
		return false
	}
	kr := machVmWriteFn(vmMapT(task), machVmAddressT(addr), uintptr(unsafe.Pointer(&data[0])), machMsgTypeNumberT(len(data)))
	return kr == 0
}

// Allocate maps size bytes anywhere in the task's address space.
func Allocate(task TaskPort, size uint64) (addr uint64, ok bool) {
	if machVmAllocateFn == nil || size == 0 {
		return 0, false
	}
	var out machVmAddressT
	kr := machVmAllocateFn(vmMapT(task), &out, machVmSizeT(size), vmFlagsAnywhere)
	if kr != 0 {
		return 0, false
	}
	return uint64(out), true
}

// Deallocate releases a prior allocation.
func Deallocate(task TaskPort, addr uint64, size uint64) bool {
	if machVmDeallocateFn == nil {
		return false
	}
	return machVmDeallocateFn(vmMapT(task), machVmAddressT(addr), machVmSizeT(size)) == 0
}

// Protect sets the protection on [addr, addr+size).
func Protect(task TaskPort, addr uint64, size uint64, protection int32) bool {
	if machVmProtectFn == nil {
		return false
	}
	return machVmProtectFn(vmMapT(task), machVmAddressT(addr), machVmSizeT(size), 0, vmProtT(protection)) == 0
}

// ImageCount returns the number of Mach-O images currently loaded into
// the calling process.
func ImageCount() uint32 {
	if dyldImageCountFn == nil {
		return 0
	}
	return dyldImageCountFn()
}

// ImageName returns the loaded name of image i.
func ImageName(i uint32) string {
	if dyldGetImageNameFn == nil {
		return ""
	}
	return dyldGetImageNameFn(i)
}

// ImageHeader returns a pointer to image i's Mach-O header, valid for
// the lifetime of the process (dyld never unloads images on this
// platform in practice).
func ImageHeader(i uint32) uintptr {
	if dyldGetImageHeaderFn == nil {
		return 0
	}
	return dyldGetImageHeaderFn(i)
}

// ImageSlide returns the ASLR slide applied to image i at load time.
func ImageSlide(i uint32) uintptr {
	if dyldGetImageVmaddrSlideFn == nil {
		return 0
	}
	return dyldGetImageVmaddrSlideFn(i)
}

// InvalidateInstructionCache invalidates the I-cache for [addr, addr+size)
// after an in-place code patch, per spec §5's protection-flip discipline.
func InvalidateInstructionCache(addr uintptr, size uintptr) {
	if sysIcacheInvalidateFn == nil {
		return
	}
	sysIcacheInvalidateFn(addr, size)
}
