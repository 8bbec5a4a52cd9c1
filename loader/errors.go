package loader

import (
	"errors"
	"fmt"
)

// ErrDataLoad marks any failure to load a source table. It is fatal for the
// process: the calculator must not run on a partial dataset.
var ErrDataLoad = errors.New("data load failed")

// DataLoadError names the artifact that could not be loaded.
type DataLoadError struct {
	Artifact string // e.g. "sku_forecasts.csv"
	Path     string
	Err      error
}

func (e *DataLoadError) Error() string {
	if e.Path != "" && e.Path != e.Artifact {
		return fmt.Sprintf("could not load %s (%s): %v", e.Artifact, e.Path, e.Err)
	}
	return fmt.Sprintf("could not load %s: %v", e.Artifact, e.Err)
}

func (e *DataLoadError) Unwrap() []error {
	return []error{ErrDataLoad, e.Err}
}
