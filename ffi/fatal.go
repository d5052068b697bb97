package ffi

import (
	"fmt"
	"unsafe"

	"github.com/finsig/smolder-c-ffi/logging"
)

var logger = logging.Component("ffi")

// PreconditionViolation is the panic value raised when a C caller breaks the
// calling contract.
type PreconditionViolation struct {
	Op     string
	Reason string
}

func (v *PreconditionViolation) Error() string {
	return fmt.Sprintf("%s: precondition violated: %s", v.Op, v.Reason)
}

func violate(op, reason string) {
	logger.Error("precondition violated", "op", op, "reason", reason)
	panic(&PreconditionViolation{Op: op, Reason: reason})
}

func requireNonNull(op, arg string, p unsafe.Pointer) {
	if p == nil {
		violate(op, arg+" is NULL")
	}
}
