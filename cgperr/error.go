// Package cgperr implements the latched, per-component error channel
// described in spec §4.6 / §7: a single slot carrying a categorical code
// plus a message, cleared only by the caller.
package cgperr

import "fmt"

// Kind classifies why an operation failed.
type Kind int

const (
	None Kind = iota
	AllocationFail
	BinaryNotFound
	SegmentNotFound
	InvalidArgument
	VMReadFail
	VMWriteFail
	VMProtectFail
	VMDeallocateFail
	VMQueryFail
	InvalidState
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case AllocationFail:
		return "allocation_fail"
	case BinaryNotFound:
		return "binary_not_found"
	case SegmentNotFound:
		return "segment_not_found"
	case InvalidArgument:
		return "invalid_argument"
	case VMReadFail:
		return "vm_read_fail"
	case VMWriteFail:
		return "vm_write_fail"
	case VMProtectFail:
		return "vm_protect_fail"
	case VMDeallocateFail:
		return "vm_deallocate_fail"
	case VMQueryFail:
		return "vm_query_fail"
	case InvalidState:
		return "invalid_state"
	default:
		return "unknown"
	}
}

// Error is the value latched into a Handler on failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Handler is a single latched error slot, meant to be embedded in any
// component that follows the "first failure wins, caller clears" model
// (the VM engine, the scanner, the shortcut resolver). It is not safe for
// concurrent use, matching the component it is embedded in.
type Handler struct {
	err Error
}

// Set latches an error if none is currently set. Once latched, the
// error holds until Clear is called — later Set calls are no-ops, since
// spec §7 describes a single first-failure slot, not a queue.
func (h *Handler) Set(kind Kind, format string, args ...any) {
	if h.err.Kind != None {
		return
	}
	h.err = Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Err returns the latched error, or nil if the handler is clean.
func (h *Handler) Err() error {
	if h.err.Kind == None {
		return nil
	}
	return h.err
}

// Kind returns the latched error's kind (None if clean).
func (h *Handler) Kind() Kind {
	return h.err.Kind
}

// Valid reports whether the handler is in the None state.
func (h *Handler) Valid() bool {
	return h.err.Kind == None
}

// Clear resets the handler to None.
func (h *Handler) Clear() {
	h.err = Error{}
}
