//go:build linux && !aeselect

package multiplexer

// DefaultName is the Name of the multiplexer New returns.
const DefaultName = "epoll"

// New creates the default multiplexer for this build.
func New(setsize int) (Iomultiplexer, error) {
	return NewEpoll(setsize)
}
