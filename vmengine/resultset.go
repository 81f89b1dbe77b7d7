package vmengine

// RegionHit is one match recorded by a scan or refinement pass. Slide
// records the offset(s) within the containing region at which the match
// occurred; it is populated on the initial scan and left empty on
// refinement passes (spec §3).
type RegionHit struct {
	RegionBase uint64
	Slide      []uint32
}

// ResultSet is the engine's accumulated sequence of region hits. It is
// exclusively owned by one Engine; there is no separate redundant count
// field (spec §9 explicitly permits dropping it — len(hits) is the
// invariant-preserving equivalent).
type ResultSet struct {
	hits []RegionHit
}

// Count returns the number of hits currently held.
func (r *ResultSet) Count() int {
	return len(r.hits)
}

// Append adds a hit, used by the initial scan. The result set only
// grows via Append (spec §4.2 invariant: scan_memory is monotone).
func (r *ResultSet) Append(hit RegionHit) {
	r.hits = append(r.hits, hit)
}

// Replace wholesale-replaces the held hits, used by nearby-search
// refinement (spec §4.2: "Replace the result set with the new set").
func (r *ResultSet) Replace(hits []RegionHit) {
	r.hits = hits
}

// All returns every hit's absolute address, in insertion order. This
// discards the containing Slide, matching the original GetAllResults
// (spec §9 "Result-set handoff" note).
func (r *ResultSet) All() []uint64 {
	out := make([]uint64, len(r.hits))
	for i, h := range r.hits {
		out[i] = h.RegionBase
	}
	return out
}

// First returns the first n hits' absolute addresses, in insertion
// order. Returns fewer than n if the set holds fewer hits, and an empty
// slice for any n <= 0.
func (r *ResultSet) First(n int) []uint64 {
	if n < 0 {
		n = 0
	}
	if n > len(r.hits) {
		n = len(r.hits)
	}
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = r.hits[i].RegionBase
	}
	return out
}

// Hits returns the raw hit slice, for callers (nearby-search) that need
// the full region base to probe around.
func (r *ResultSet) Hits() []RegionHit {
	return r.hits
}
