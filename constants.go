package rina

import "github.com/rinacore/rinacore/internal/constants"

// Re-export constants for public API
const (
	MaxIPCPs           = constants.MaxIPCPs
	MaxPortIDs         = constants.MaxPortIDs
	MaxCEPIDs          = constants.MaxCEPIDs
	UpqueueByteBudget  = constants.UpqueueByteBudget
	StagingBufferSize  = constants.StagingBufferSize
	DefaultFlowDelWait = constants.DefaultFlowDelWait
	UnboundFlowTimeout = constants.UnboundFlowTimeout
	MaxCWQLen          = constants.MaxCWQLen
	MaxRTXQLen         = constants.MaxRTXQLen
)
