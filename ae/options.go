package ae

import (
	"github.com/joeycumines/logiface"
)

type loopOptions struct {
	logger *logiface.Logger[logiface.Event]
}

// Option configures an EventLoop.
type Option interface {
	applyLoop(*loopOptions) error
}

type optionFunc func(*loopOptions) error

func (f optionFunc) applyLoop(opts *loopOptions) error {
	return f(opts)
}

// WithLogger attaches a structured logger. Without one the loop logs
// nothing.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return optionFunc(func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	})
}

func resolveOptions(opts []Option) (*loopOptions, error) {
	cfg := &loopOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
