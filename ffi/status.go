package ffi

// Status is the int32 result code of the C entry points.
type Status int32

const (
	// StatusOK reports success.
	StatusOK Status = 0
	// StatusEnd reports that a chain's response stream has ended.
	StatusEnd Status = 1
	// StatusUnknownChain reports a chain id that is not registered.
	StatusUnknownChain Status = -1
	// StatusEngineRejected reports that the engine refused the operation.
	StatusEngineRejected Status = -2
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "SMOLDOT_OK"
	case StatusEnd:
		return "SMOLDOT_END"
	case StatusUnknownChain:
		return "SMOLDOT_UNKNOWN_CHAIN"
	case StatusEngineRejected:
		return "SMOLDOT_ENGINE_REJECTED"
	default:
		return "SMOLDOT_UNKNOWN_STATUS"
	}
}
