// Package logging builds the structured logger shared by the server and its
// event loop.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// ParseLevel accepts the syslog keywords logiface prints ("err", "warning",
// "info", ...) along with the usual long spellings.
func ParseLevel(name string) (logiface.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "error":
		return logiface.LevelError, nil
	case "warn":
		return logiface.LevelWarning, nil
	case "information", "informational":
		return logiface.LevelInformational, nil
	}

	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		if level.String() == name {
			return level, nil
		}
	}

	return logiface.LevelDisabled, fmt.Errorf("unknown log level %q", name)
}

// New returns a JSON logger writing to w, filtered at level.
func New(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}
