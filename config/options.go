package config

import "github.com/jpalmerr/pollstate"

// RequestOptions converts the overrides into pollstate request options.
//
// Only fields that are set produce an option, so the result can be appended
// after a preset's defaults.
func (p PollConfig) RequestOptions() []pollstate.RequestOption {
	var opts []pollstate.RequestOption
	if p.Interval != 0 {
		opts = append(opts, pollstate.WithInterval(p.Interval.Duration()))
	}
	if p.Timeout != nil {
		opts = append(opts, pollstate.WithTimeout(p.Timeout.Duration()))
	}
	if p.MaxConsecutiveErrors != nil {
		opts = append(opts, pollstate.WithMaxConsecutiveErrors(*p.MaxConsecutiveErrors))
	}
	return opts
}
