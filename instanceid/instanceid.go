// Package instanceid identifies this lab process among the instances sharing one redis
package instanceid

import (
	"github.com/google/uuid"
)

// nolint:gochecknoglobals
var instanceID = uuid.New()

// String instance id representation as string
func String() string {
	return instanceID.String()
}

// Equal reports whether id is the id of this instance
func Equal(id string) bool {
	parsed, err := uuid.Parse(id)

	return err == nil && parsed == instanceID
}
