//go:build aeselect && (linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package multiplexer

// DefaultName is the Name of the multiplexer New returns.
const DefaultName = "select"

// New creates the default multiplexer for this build.
func New(setsize int) (Iomultiplexer, error) {
	return NewSelect(setsize)
}
