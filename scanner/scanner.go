package scanner

import (
	"github.com/opsprobe/cgprobe/cgperr"
	"github.com/opsprobe/cgprobe/locator"
	"github.com/opsprobe/cgprobe/vmengine"
)

// Scanner binds one located image's named segment to a reading Engine,
// so that patterns can be searched for by absolute address without the
// caller having to re-resolve the image on every call (spec §4.4 "Built
// atop an image+segment range").
type Scanner struct {
	cgperr.Handler

	engine  *vmengine.Engine
	segment locator.SegmentRange
}

// New locates the first image whose name contains imageSubstr and
// resolves segmentName within it. Construction failures are latched on
// the returned Scanner's error state (spec §4.3: "Failure of either
// step sets the scanner into BinaryNotFound or SegmentNotFound") rather
// than returned as a Go error, since every other operation on Scanner
// already defers to that same latch.
func New(engine *vmengine.Engine, imageSubstr, segmentName string) *Scanner {
	s := &Scanner{engine: engine}

	desc, ok := locator.Locate(imageSubstr)
	if !ok {
		s.Set(cgperr.BinaryNotFound, "no loaded image matching %q", imageSubstr)
		return s
	}

	seg, ok := locator.ResolveSegment(desc, segmentName)
	if !ok {
		if suggestion, sok := locator.Suggest(segmentName, locator.SegmentNames(desc)); sok {
			s.Set(cgperr.SegmentNotFound, "segment %q not found in %q (did you mean %q?)", segmentName, imageSubstr, suggestion)
		} else {
			s.Set(cgperr.SegmentNotFound, "segment %q not found in %q", segmentName, imageSubstr)
		}
		return s
	}

	s.segment = seg
	return s
}

// Segment returns the resolved absolute segment range.
func (s *Scanner) Segment() locator.SegmentRange {
	return s.segment
}

// FindFirst returns the absolute address of the first match of pattern
// (with wildcard positions marked true in mask) within the bound
// segment, or 0 if none is found (spec §4.4: zero address is the
// not-found sentinel, matching the engine's own convention).
func (s *Scanner) FindFirst(pattern []byte, mask []bool) uint64 {
	if !s.Valid() {
		return 0
	}
	data, ok := s.engine.ReadMemory(s.segment.Start, s.segment.Size())
	if !ok {
		return 0
	}
	off := FindFirstBytes(data, pattern, mask)
	if off < 0 {
		return 0
	}
	return s.segment.Start + uint64(off)
}

// FindAll returns the absolute addresses of every non-overlapping match
// of pattern within the bound segment, in ascending order.
func (s *Scanner) FindAll(pattern []byte, mask []bool) []uint64 {
	if !s.Valid() {
		return nil
	}
	data, ok := s.engine.ReadMemory(s.segment.Start, s.segment.Size())
	if !ok {
		return nil
	}
	offsets := ScanBytes(data, pattern, mask)
	out := make([]uint64, len(offsets))
	for i, off := range offsets {
		out[i] = s.segment.Start + uint64(off)
	}
	return out
}

// FindFirstIDA parses ida and returns the absolute address of its first
// match, or 0 if the pattern is malformed or absent.
func (s *Scanner) FindFirstIDA(ida string) uint64 {
	pattern, mask, ok := ParseIDA(ida)
	if !ok {
		s.Set(cgperr.InvalidArgument, "malformed IDA pattern %q", ida)
		return 0
	}
	return s.FindFirst(pattern, mask)
}

// FindAllIDA parses ida and returns every non-overlapping match address.
func (s *Scanner) FindAllIDA(ida string) []uint64 {
	pattern, mask, ok := ParseIDA(ida)
	if !ok {
		s.Set(cgperr.InvalidArgument, "malformed IDA pattern %q", ida)
		return nil
	}
	return s.FindAll(pattern, mask)
}
