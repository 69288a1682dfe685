package backend

import (
	"golang.org/x/xerrors"
)

// Status is the canonical container status. Concrete backends map their native
// states into this set before returning them, so callers never see
// engine-specific state strings.
type Status string

const (
	StatusCreated    Status = "created"
	StatusRunning    Status = "running"
	StatusPaused     Status = "paused"
	StatusRestarting Status = "restarting"
	StatusRemoving   Status = "removing"
	StatusExited     Status = "exited"
	StatusDead       Status = "dead"
)

var knownStatuses = map[Status]struct{}{
	StatusCreated:    {},
	StatusRunning:    {},
	StatusPaused:     {},
	StatusRestarting: {},
	StatusRemoving:   {},
	StatusExited:     {},
	StatusDead:       {},
}

func (s Status) Validate() error {
	if _, ok := knownStatuses[s]; !ok {
		return xerrors.Errorf("Unknown container status: %q", string(s))
	}
	return nil
}

func (s Status) IsRunning() bool {
	return s == StatusRunning || s == StatusRestarting
}

// ParseStatus maps a native backend state string to a Status. Paused and
// pausing-like states collapse into StatusPaused.
func ParseStatus(native string) (Status, error) {
	switch native {
	case "created", "configured", "initialized":
		return StatusCreated, nil
	case "running", "stopping":
		return StatusRunning, nil
	case "paused", "pausing":
		return StatusPaused, nil
	case "restarting":
		return StatusRestarting, nil
	case "removing":
		return StatusRemoving, nil
	case "exited", "stopped":
		return StatusExited, nil
	case "dead":
		return StatusDead, nil
	default:
		return "", xerrors.Errorf("Got an unexpected container state: %q", native)
	}
}
