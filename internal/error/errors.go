package custom_err

import "errors"

// Event loop errors.
var (
	ErrorInit              = errors.New("event loop: multiplexer initialisation failed")
	ErrorCapacityExceeded  = errors.New("event loop: fd out of range")
	ErrorRegistration      = errors.New("event loop: kernel rejected fd registration")
	ErrorTimerNotFound     = errors.New("event loop: no timer with the given id")
	ErrorMultiplexerClosed = errors.New("event loop: multiplexer closed")
	ErrorNilProc           = errors.New("event loop: nil callback")
)

// Server errors.
var (
	ErrorIncompleteRESP     = errors.New("incomplete RESP data")
	ErrorProtocol           = errors.New("protocol error")
	ErrorKeyNotExists       = errors.New("target key doesn't exist")
	ErrorNotSet             = errors.New("key was not set")
	ErrorNotFullyWritten    = errors.New("data not fully written to socket")
	ErrorClientDisconnected = errors.New("client disconnected")
	ErrorReadingSocket      = errors.New("failed to copy data from kernal space to user space")
	ErrorQueryTooBig        = errors.New("query buffer exceeded the configured limit")

	ErrorRequeueTask = errors.New("task executed with failure, needs to be requeued")
)
