//go:build (darwin || dragonfly || freebsd || netbsd || openbsd) && !aeselect

package multiplexer

// DefaultName is the Name of the multiplexer New returns.
const DefaultName = "kqueue"

// New creates the default multiplexer for this build.
func New(setsize int) (Iomultiplexer, error) {
	return NewKqueue(setsize)
}
