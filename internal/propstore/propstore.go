// Package propstore reads file-embedded property sections without involving
// the authoring application.
package propstore

import "github.com/Leocrydis/SENomexLayers/internal/models"

// Store is an open, read-only view of a file's property sections.
type Store interface {
	// Sections enumerates all property sections in storage order.
	Sections() ([]models.Section, error)
	Close() error
}

// Opener opens the lightweight out-of-process property store of a file.
// Implementations must open strictly read-only: the whole point of this path
// is not to contend with an editing session that may hold the file.
type Opener interface {
	Open(path string) (Store, error)
}
