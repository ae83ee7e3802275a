package ingest

import (
	"io"

	"energy_dashboard/internal/model"
)

// Parser reads recorded widget pushes from a source.
type Parser interface {
	Parse(r io.Reader) ([]model.Push, error)
}
