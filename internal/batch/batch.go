// Package batch resolves a batch of part identifiers to property matches,
// isolating per-file failures so one bad file never aborts the rest.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Leocrydis/SENomexLayers/internal/apperr"
	"github.com/Leocrydis/SENomexLayers/internal/models"
	"github.com/Leocrydis/SENomexLayers/internal/partfs"
)

// PropertyReader reads the custom properties of one part file.
type PropertyReader interface {
	Read(ctx context.Context, path string) ([]models.Property, error)
}

// Diagnostic records a per-identifier failure. Diagnostics are reported
// alongside the matches, never as output lines.
type Diagnostic struct {
	Identifier string `json:"identifier"`
	Error      string `json:"error"`
}

// Result aggregates one batch run. Matches follow identifier input order;
// within one file they follow that file's enumeration order.
type Result struct {
	Matches     []models.Match `json:"matches"`
	Diagnostics []Diagnostic   `json:"diagnostics"`
}

// Resolver runs batches against a search root.
type Resolver struct {
	parts  *partfs.FS
	reader PropertyReader
	prefix string
	logger *slog.Logger
}

// New creates a Resolver matching property names that begin with prefix.
func New(parts *partfs.FS, reader PropertyReader, prefix string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{parts: parts, reader: reader, prefix: prefix, logger: logger}
}

// Resolve processes identifiers in input order. Each one is resolved to a
// path, read, and filtered to properties matching the prefix. Per-file errors
// become diagnostics and processing continues; the only error this method
// returns is a thread-affinity precondition violation, which aborts the run.
func (r *Resolver) Resolve(ctx context.Context, identifiers []string) (Result, error) {
	res := Result{Matches: []models.Match{}, Diagnostics: []Diagnostic{}}

	for _, id := range identifiers {
		path, err := r.parts.Resolve(id)
		if err != nil {
			r.diagnose(&res, id, err)
			continue
		}

		props, err := r.reader.Read(ctx, path)
		if err != nil {
			if errors.Is(err, apperr.ErrThreadAffinity) {
				return res, err
			}
			r.diagnose(&res, id, err)
			continue
		}

		for _, p := range props {
			if !strings.HasPrefix(p.Name, r.prefix) {
				continue
			}
			res.Matches = append(res.Matches, models.Match{
				Identifier: id,
				Name:       p.Name,
				Value:      p.Text(),
			})
		}
	}

	return res, nil
}

func (r *Resolver) diagnose(res *Result, id string, err error) {
	r.logger.Warn("identifier skipped",
		slog.String("identifier", id),
		slog.String("error", err.Error()))
	res.Diagnostics = append(res.Diagnostics, Diagnostic{Identifier: id, Error: err.Error()})
}
