package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownChain is returned for a handle that is not registered.
	ErrUnknownChain = errors.New("unknown chain id")

	// ErrInvalidText is returned for inbound text that is not valid UTF-8.
	ErrInvalidText = errors.New("text is not valid UTF-8")
)

// EngineRejection reports that the engine refused an operation. Err is the
// engine's error; core sentinels such as core.ErrInvalidChainSpec remain
// reachable through errors.Is.
type EngineRejection struct {
	Op  string
	Err error
}

func (e *EngineRejection) Error() string {
	return fmt.Sprintf("%s: engine rejected: %v", e.Op, e.Err)
}

func (e *EngineRejection) Unwrap() error {
	return e.Err
}
