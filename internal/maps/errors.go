package maps

import (
	"errors"
	"fmt"
)

// DefinitionError reports a malformed map definition. It is raised while
// building the catalog and is not recoverable.
type DefinitionError struct {
	MapID  string
	Field  string
	Reason string
}

func (e *DefinitionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("map %q: %s", e.MapID, e.Reason)
	}
	return fmt.Sprintf("map %q: %s: %s", e.MapID, e.Field, e.Reason)
}

func definitionErrorf(mapID, field, format string, args ...any) *DefinitionError {
	return &DefinitionError{MapID: mapID, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UnknownMapError is returned when a map id is not registered.
type UnknownMapError struct {
	MapID string
}

func (e *UnknownMapError) Error() string {
	return fmt.Sprintf("unknown map %q", e.MapID)
}

// ErrNoMaps is returned by LoadDir for a directory without map files.
var ErrNoMaps = errors.New("no map files")
