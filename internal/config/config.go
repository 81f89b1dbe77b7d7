// Package config reads the small set of environment overrides the core
// honors. Production construction never needs these — they exist so
// unit tests can pin a page size or a synthetic task port without
// touching the real kernel.
package config

import "github.com/xyproto/env/v2"

const (
	pageSizeVar = "CGPROBE_PAGE_SIZE"
	taskPortVar = "CGPROBE_TASK_PORT"
)

// PageSizeOverride returns a forced page size and true if
// CGPROBE_PAGE_SIZE is set to a positive integer, otherwise 0 and false.
func PageSizeOverride() (int, bool) {
	v := env.Int(pageSizeVar, 0)
	if v <= 0 {
		return 0, false
	}
	return v, true
}

// TaskPortOverride returns a forced task port and true if
// CGPROBE_TASK_PORT is set, otherwise 0 and false. vmengine.Self uses
// it in place of mach_task_self when it is set.
func TaskPortOverride() (uint32, bool) {
	v := env.Int(taskPortVar, -1)
	if v < 0 {
		return 0, false
	}
	return uint32(v), true
}
