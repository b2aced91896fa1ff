package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrStrategyNotFound = errors.New("response strategy not found")
	ErrEmptyCorpus      = errors.New("required corpus is empty")
	ErrGenerationFailed = errors.New("generation backend failed")
	ErrIndexNotReady    = errors.New("semantic index not built")
)
