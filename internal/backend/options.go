package backend

import (
	"time"

	"golang.org/x/xerrors"
)

// Option names understood by the bundled backends. The bag is open-ended:
// callers may pass backend-specific options the contract doesn't know about,
// and each backend validates the options it actually consumes.
const (
	OptionForce       = "force"
	OptionStopTimeout = "stop_timeout"
	OptionPull        = "pull"
	OptionTag         = "tag"
)

// Options is the catch-all trailing options bag accepted by every backend
// operation. Unknown keys are ignored by the callee; known keys of a wrong
// type are an illegal-specification error.
type Options map[string]any

func (o Options) Bool(name string) (bool, error) {
	value, ok := o[name]
	if !ok {
		return false, nil
	}

	result, ok := value.(bool)
	if !ok {
		return false, xerrors.Errorf("%q option must be a boolean, but %T given", name, value)
	}
	return result, nil
}

func (o Options) String(name string, defaultValue string) (string, error) {
	value, ok := o[name]
	if !ok {
		return defaultValue, nil
	}

	result, ok := value.(string)
	if !ok {
		return "", xerrors.Errorf("%q option must be a string, but %T given", name, value)
	}
	return result, nil
}

func (o Options) Duration(name string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := o[name]
	if !ok {
		return defaultValue, nil
	}

	switch result := value.(type) {
	case time.Duration:
		return result, nil
	case int:
		return time.Duration(result) * time.Second, nil
	default:
		return 0, xerrors.Errorf("%q option must be a duration, but %T given", name, value)
	}
}

// Merge flattens a trailing variadic options slice into a single bag. Later
// bags win on key conflicts.
func Merge(opts ...Options) Options {
	if len(opts) == 0 {
		return nil
	} else if len(opts) == 1 {
		return opts[0]
	}

	merged := make(Options)
	for _, bag := range opts {
		for name, value := range bag {
			merged[name] = value
		}
	}
	return merged
}
