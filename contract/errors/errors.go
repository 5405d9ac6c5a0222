package errors

// Error codes for the slice-bus contracts. Keep stable; used across the bus,
// the container, the lifecycle runtime, and the sink adapters.
const (
	// Event bus structure.
	ErrCodeKindExists         = "eventbus.kind_exists"
	ErrCodeKindInvalid        = "eventbus.kind_invalid"
	ErrCodeKindUnknown        = "eventbus.kind_unknown"
	ErrCodePayloadType        = "eventbus.payload_type_mismatch"
	ErrCodeSubscriptionExists = "eventbus.subscription_exists"
	ErrCodeNilHandler         = "eventbus.nil_handler"
	ErrCodeBusClosed          = "eventbus.closed"

	// Event bus dispatch outcomes.
	ErrCodeDispatchCycle  = "eventbus.dispatch_cycle"
	ErrCodeHandlerFailed  = "eventbus.handler_failed"
	ErrCodeHandlerPanic   = "eventbus.handler_panic"
	ErrCodeHandlerTimeout = "eventbus.handler_timeout"

	// Request/response path.
	ErrCodeNoResponder    = "eventbus.no_responder"
	ErrCodeRequestTimeout = "eventbus.request_timeout"
	ErrCodeResponseType   = "eventbus.response_type_mismatch"

	// Service container.
	ErrCodeDescriptorInvalid    = "container.descriptor_invalid"
	ErrCodeServiceExists        = "container.service_exists"
	ErrCodeServiceUnknown       = "container.service_unknown"
	ErrCodeServiceShutdown      = "container.service_shut_down"
	ErrCodeDependencyUndeclared = "container.dependency_undeclared"
	ErrCodeDependencyType       = "container.dependency_type_mismatch"
	ErrCodeCircularDependency   = "container.circular_dependency"
	ErrCodeServiceConstruction  = "container.service_construction_failed"

	// Lifecycle runtime.
	ErrCodeRuntimeStarted = "lifecycle.already_started"

	// Configuration.
	ErrCodeConfigInvalid = "config.invalid"

	// Observability sinks.
	ErrCodeForwardFailed       = "sink.forward_failed"
	ErrCodeSerializationFailed = "sink.serialization_failed"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrKindExists         = Code(ErrCodeKindExists)
	ErrKindInvalid        = Code(ErrCodeKindInvalid)
	ErrKindUnknown        = Code(ErrCodeKindUnknown)
	ErrPayloadType        = Code(ErrCodePayloadType)
	ErrSubscriptionExists = Code(ErrCodeSubscriptionExists)
	ErrNilHandler         = Code(ErrCodeNilHandler)
	ErrBusClosed          = Code(ErrCodeBusClosed)

	ErrDispatchCycle  = Code(ErrCodeDispatchCycle)
	ErrHandlerFailed  = Code(ErrCodeHandlerFailed)
	ErrHandlerPanic   = Code(ErrCodeHandlerPanic)
	ErrHandlerTimeout = Code(ErrCodeHandlerTimeout)

	ErrNoResponder    = Code(ErrCodeNoResponder)
	ErrRequestTimeout = Code(ErrCodeRequestTimeout)
	ErrResponseType   = Code(ErrCodeResponseType)

	ErrDescriptorInvalid    = Code(ErrCodeDescriptorInvalid)
	ErrServiceExists        = Code(ErrCodeServiceExists)
	ErrServiceUnknown       = Code(ErrCodeServiceUnknown)
	ErrServiceShutdown      = Code(ErrCodeServiceShutdown)
	ErrDependencyUndeclared = Code(ErrCodeDependencyUndeclared)
	ErrDependencyType       = Code(ErrCodeDependencyType)
	ErrCircularDependency   = Code(ErrCodeCircularDependency)
	ErrServiceConstruction  = Code(ErrCodeServiceConstruction)

	ErrRuntimeStarted = Code(ErrCodeRuntimeStarted)

	ErrConfigInvalid = Code(ErrCodeConfigInvalid)

	ErrForwardFailed       = Code(ErrCodeForwardFailed)
	ErrSerializationFailed = Code(ErrCodeSerializationFailed)
)
