package backend

import (
	"golang.org/x/xerrors"
)

// Well-known field names of container result records. Every record returned by
// a backend operation carries at least FieldPK and FieldStatus.
const (
	FieldPK     = "pk"
	FieldName   = "name"
	FieldStatus = "status"
	FieldImage  = "image"
	FieldExit   = "exit_code"
)

// Details is a loosely-typed result record. Backends put engine-specific
// information here in addition to the required fields.
type Details map[string]any

func (d Details) Validate(required ...string) error {
	for _, name := range required {
		if _, ok := d[name]; !ok {
			return xerrors.Errorf("%q field of the result record is missing", name)
		}
	}
	return nil
}

func (d Details) String(name string) (string, bool) {
	value, ok := d[name].(string)
	return value, ok
}

func (d Details) Status() (Status, bool) {
	switch value := d[FieldStatus].(type) {
	case Status:
		return value, true
	case string:
		return Status(value), true
	default:
		return "", false
	}
}
