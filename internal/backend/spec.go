package backend

import (
	"github.com/go-playground/validator/v10"
	"golang.org/x/xerrors"
)

var specValidator = validator.New()

// ContainerSpec describes a container to create. It deliberately mirrors the
// transfer format used between coco subsystems, so it can be passed around
// model-independently.
type ContainerSpec struct {
	Name  string `json:"name" yaml:"name" validate:"required,hostname_rfc1123"`
	Image string `json:"image" yaml:"image" validate:"required"`

	// optional fields
	Cmd     []string          `json:"cmd,omitempty" yaml:"cmd,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Ports   []PortMapping     `json:"ports,omitempty" yaml:"ports,omitempty"`
	Volumes []VolumeMapping   `json:"volumes,omitempty" yaml:"volumes,omitempty"`
}

type PortMapping struct {
	Host      uint16 `json:"host" yaml:"host" validate:"required"`
	Container uint16 `json:"container" yaml:"container" validate:"required"`
}

type VolumeMapping struct {
	Source string `json:"source" yaml:"source" validate:"required"`
	Target string `json:"target" yaml:"target" validate:"required"`
}

func (s ContainerSpec) Validate() error {
	if err := specValidator.Struct(s); err != nil {
		return xerrors.Errorf("Invalid container specification: %w", err)
	}
	return nil
}

// Container is the canonical record a backend reports about a container.
type Container struct {
	PK     string
	Name   string
	Image  string
	Status Status

	// Details carries engine-specific fields in addition to the required
	// ones. It always contains at least FieldPK and FieldStatus.
	Details Details
}

// WithDetails fills the record's details bag with the required fields and any
// extra backend-specific values.
func (c Container) WithDetails(extra Details) Container {
	details := Details{
		FieldPK:     c.PK,
		FieldName:   c.Name,
		FieldStatus: c.Status,
	}
	if c.Image != "" {
		details[FieldImage] = c.Image
	}
	for name, value := range extra {
		details[name] = value
	}

	c.Details = details
	return c
}
