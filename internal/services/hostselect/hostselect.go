// Package hostselect chooses the host a new container should be scheduled on
// in a multihost environment.
package hostselect

import (
	"errors"

	"github.com/pkg/math"
	"github.com/samber/mo"
	"golang.org/x/xerrors"
)

var ErrNoHosts = errors.New("no hosts are available")

type Host struct {
	Name string

	// Containers is the current container count, Capacity the soft limit
	// after which the host is considered full. Zero capacity means unlimited.
	Containers int
	Capacity   int
}

const unlimitedCapacity = 1 << 20

// free returns the host's remaining container slots. Unlimited hosts get a
// large virtual capacity so less loaded ones still win among themselves.
func (h Host) free() int64 {
	capacity := h.Capacity
	if capacity == 0 {
		capacity = unlimitedCapacity
	}
	return math.MaxInt64(0, int64(capacity-h.Containers))
}

type Service interface {
	Select(hosts []Host) (Host, error)
}

type leastLoaded struct{}

var _ Service = leastLoaded{}

// NewLeastLoaded selects the host with the most free container slots.
func NewLeastLoaded() Service {
	return leastLoaded{}
}

func (leastLoaded) Select(hosts []Host) (Host, error) {
	var best mo.Option[Host]

	for _, host := range hosts {
		if host.free() == 0 {
			continue
		}

		if current, ok := best.Get(); !ok || host.free() > current.free() {
			best = mo.Some(host)
		}
	}

	host, ok := best.Get()
	if !ok {
		return Host{}, xerrors.Errorf("Failed to select a container host: %w", ErrNoHosts)
	}

	return host, nil
}
