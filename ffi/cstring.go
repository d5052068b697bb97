package ffi

/*
#include <stdlib.h>
*/
import "C"

import (
	"strings"
	"sync"
	"unicode/utf8"
	"unsafe"
)

// textTable records every string handed to C that has not been released.
type textTable struct {
	mu   sync.Mutex
	live map[unsafe.Pointer]struct{}
}

func newTextTable() *textTable {
	return &textTable{live: make(map[unsafe.Pointer]struct{})}
}

// export copies s into malloc'd memory owned by the caller until release.
func (t *textTable) export(op, s string) unsafe.Pointer {
	if strings.IndexByte(s, 0) >= 0 {
		violate(op, "outbound text contains a NUL byte")
	}
	if !utf8.ValidString(s) {
		violate(op, "outbound text is not valid UTF-8")
	}

	p := unsafe.Pointer(C.CString(s))

	t.mu.Lock()
	t.live[p] = struct{}{}
	t.mu.Unlock()
	return p
}

// release frees p. p must come from export and not have been released.
func (t *textTable) release(op string, p unsafe.Pointer) {
	requireNonNull(op, "text", p)

	t.mu.Lock()
	_, ok := t.live[p]
	delete(t.live, p)
	t.mu.Unlock()

	if !ok {
		violate(op, "text was already released or was not allocated by this library")
	}
	C.free(p)
}

// outstanding returns the number of exported strings not yet released.
func (t *textTable) outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// borrowText copies a NUL-terminated string owned by the caller.
func borrowText(p unsafe.Pointer) string {
	return C.GoString((*C.char)(p))
}

// diagnostic makes an error message safe to export.
func diagnostic(msg string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(msg, "\uFFFD"), "\x00", "")
}
