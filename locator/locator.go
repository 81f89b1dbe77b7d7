// Package locator enumerates the Mach-O images loaded into the current
// process and resolves a named segment within one of them to an
// absolute byte range (spec §4.3). It only ever looks at the calling
// process's own image list — it has no notion of a remote task.
package locator

import (
	"strings"

	"github.com/opsprobe/cgprobe/internal/machkit"
)

// Descriptor is a transient (header, slide) pair for a located image
// (spec §3). It is not persisted past the call that produced it.
type Descriptor struct {
	Header uintptr
	Slide  uintptr
}

// SegmentRange is the absolute [Start, End) range of a named segment
// within a located image.
type SegmentRange struct {
	Start uint64
	End   uint64
}

// Size returns End - Start, or 0 if the range is empty or inverted.
func (r SegmentRange) Size() uint64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Locate returns the first loaded image whose name contains substr, and
// true. If none matches, ok is false and Descriptor is zero.
func Locate(substr string) (Descriptor, bool) {
	count := machkit.ImageCount()
	for i := uint32(0); i < count; i++ {
		if strings.Contains(machkit.ImageName(i), substr) {
			return Descriptor{
				Header: machkit.ImageHeader(i),
				Slide:  machkit.ImageSlide(i),
			}, true
		}
	}
	return Descriptor{}, false
}

// LocateAll returns every loaded image whose name contains substr, in
// dyld's load order. This generalizes Locate's first-match semantics
// (spec §4.3) for callers that need every matching image (e.g. a
// library remap step) — it does not change Locate's own behavior.
func LocateAll(substr string) []Descriptor {
	count := machkit.ImageCount()
	var out []Descriptor
	for i := uint32(0); i < count; i++ {
		if strings.Contains(machkit.ImageName(i), substr) {
			out = append(out, Descriptor{
				Header: machkit.ImageHeader(i),
				Slide:  machkit.ImageSlide(i),
			})
		}
	}
	return out
}

// ResolveSegment looks up segmentName (default "__TEXT" is the caller's
// convention, not enforced here) in desc's load-command directory and
// returns its absolute range. ok is false if the segment is absent.
func ResolveSegment(desc Descriptor, segmentName string) (SegmentRange, bool) {
	start, end, ok := machkit.FindSegment(desc.Header, desc.Slide, segmentName)
	if !ok {
		return SegmentRange{}, false
	}
	return SegmentRange{Start: start, End: end}, true
}

// SegmentNames returns every segment name present in desc's image, in
// load-command order.
func SegmentNames(desc Descriptor) []string {
	return machkit.SegmentNames(desc.Header)
}
