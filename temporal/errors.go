package temporal

import "errors"

// ErrClosed is returned when an operation is attempted on a Service or
// Router that has been closed. In-flight operations at close time may also
// observe it.
var ErrClosed = errors.New("temporal store is closed")

// ErrUnknownSnapshot is returned by queries for an identity for which no
// event has ever been admitted (events skipped over the memory budget do not
// count). The caller can treat it as "default state" or as a miss,
// depending on the domain.
var ErrUnknownSnapshot = errors.New("unknown snapshot identity")

// ErrQueueFull is returned when an operation gives up waiting for space on a
// saturated worker queue. The cause (cancellation or deadline) is wrapped
// alongside it.
var ErrQueueFull = errors.New("worker queue is full")

// ErrTimeout is returned when a query was accepted by a worker but the
// caller's context expired before the answer arrived. The context error is
// wrapped alongside it.
var ErrTimeout = errors.New("timed out waiting for snapshot")

// ErrInvalidOption is wrapped by option constructors when a configuration
// value is out of range.
var ErrInvalidOption = errors.New("invalid option")
