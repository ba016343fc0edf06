package cmd

import (
	"github.com/fluxionhq/fluxion/pkg/persistence"
	"github.com/fluxionhq/fluxion/pkg/persistence/file"
)

// NewPersistence builds the storage backend from a data URL. Only the file
// backend exists today; the URL form leaves room for database backends.
func NewPersistence(dataURL string) persistence.Persistence {
	return file.NewPersistence(dataURL)
}
