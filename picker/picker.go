// Package picker wraps the native file-picker collaborator used to
// choose an organ definition when none is configured.
package picker

import (
	"errors"

	"github.com/sqweek/dialog"
)

// ErrCancelled is returned when the user dismisses the dialog.
var ErrCancelled = errors.New("file selection cancelled")

// Picker chooses an organ definition file. The console's built-in file
// browser and the native dialog both satisfy this.
type Picker interface {
	PickOrganFile(startDir string) (string, error)
}

// Dialog opens the platform's native open-file dialog.
type Dialog struct{}

func (Dialog) PickOrganFile(startDir string) (string, error) {
	b := dialog.File().Title("Open organ definition").Filter("Organ definition", "organ", "json")
	if startDir != "" {
		b = b.SetStartDir(startDir)
	}
	path, err := b.Load()
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			return "", ErrCancelled
		}
		return "", err
	}
	return path, nil
}
