package machkit

import "unsafe"

// Mach-O constants needed to walk a loaded image's load-command list and
// find a named segment. Trimmed to exactly what segment resolution needs;
// this is not a general Mach-O parser.
const (
	machMagic64  = 0xfeedfacf
	lcSegment64  = 0x19
	lcRequiredDyld = 0x80000000 // LC_REQ_DYLD bit, used to mask cmd before comparing
)

// machHeader64 mirrors struct mach_header_64 from <mach-o/loader.h>.
type machHeader64 struct {
	Magic      uint32
	CPUType    uint32
	CPUSubtype uint32
	FileType   uint32
	NCmds      uint32
	SizeOfCmds uint32
	Flags      uint32
	Reserved   uint32
}

// loadCommand mirrors struct load_command.
type loadCommand struct {
	Cmd     uint32
	CmdSize uint32
}

// segmentCommand64 mirrors struct segment_command_64.
type segmentCommand64 struct {
	Cmd      uint32
	CmdSize  uint32
	SegName  [16]byte
	VMAddr   uint64
	VMSize   uint64
	FileOff  uint64
	FileSize uint64
	MaxProt  int32
	InitProt int32
	NSects   uint32
	Flags    uint32
}

func cstr(b [16]byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

// FindSegment walks the load commands of the Mach-O image at header
// (already slid into this process's address space) and returns the
// absolute [start, end) range of the named segment. ok is false if
// header doesn't look like a 64-bit Mach-O image or the segment isn't
// present.
func FindSegment(header uintptr, slide uintptr, name string) (start, end uint64, ok bool) {
	if header == 0 {
		return 0, 0, false
	}
	h := (*machHeader64)(unsafe.Pointer(header))
	if h.Magic != machMagic64 {
		return 0, 0, false
	}

	cursor := header + unsafe.Sizeof(machHeader64{})
	for i := uint32(0); i < h.NCmds; i++ {
		lc := (*loadCommand)(unsafe.Pointer(cursor))
		if lc.CmdSize == 0 {
			return 0, 0, false
		}
		if lc.Cmd&^lcRequiredDyld == lcSegment64 {
			seg := (*segmentCommand64)(unsafe.Pointer(cursor))
			if cstr(seg.SegName) == name {
				base := seg.VMAddr + uint64(slide)
				return base, base + seg.VMSize, true
			}
		}
		cursor += uintptr(lc.CmdSize)
	}
	return 0, 0, false
}

// SegmentNames returns every segment name present in the image at
// header, in load-command order. Used only to build "did you mean"
// suggestions when the requested segment is absent.
func SegmentNames(header uintptr) []string {
	if header == 0 {
		return nil
	}
	h := (*machHeader64)(unsafe.Pointer(header))
	if h.Magic != machMagic64 {
		return nil
	}

	var names []string
	cursor := header + unsafe.Sizeof(machHeader64{})
	for i := uint32(0); i < h.NCmds; i++ {
		lc := (*loadCommand)(unsafe.Pointer(cursor))
		if lc.CmdSize == 0 {
			break
		}
		if lc.Cmd&^lcRequiredDyld == lcSegment64 {
			seg := (*segmentCommand64)(unsafe.Pointer(cursor))
			names = append(names, cstr(seg.SegName))
		}
		cursor += uintptr(lc.CmdSize)
	}
	return names
}
