package api

import (
	"context"

	"github.com/Leocrydis/SENomexLayers/internal/automation"
	"github.com/Leocrydis/SENomexLayers/internal/batch"
	"github.com/Leocrydis/SENomexLayers/internal/models"
	"github.com/Leocrydis/SENomexLayers/internal/partfs"
)

// Service coordinates the batch resolver and property reader for the API and
// MCP layers, marshalling all reads onto the exclusive automation worker.
type Service struct {
	worker   *automation.Worker
	resolver *batch.Resolver
	reader   batch.PropertyReader
	parts    *partfs.FS
}

// NewService creates a new API service.
func NewService(worker *automation.Worker, resolver *batch.Resolver, reader batch.PropertyReader, parts *partfs.FS) *Service {
	return &Service{worker: worker, resolver: resolver, reader: reader, parts: parts}
}

// Resolve runs one batch on the worker thread and returns its result.
func (s *Service) Resolve(ctx context.Context, identifiers []string) (batch.Result, error) {
	var res batch.Result
	err := s.worker.Do(ctx, func(ctx context.Context) error {
		r, rErr := s.resolver.Resolve(ctx, identifiers)
		res = r
		return rErr
	})
	return res, err
}

// ListParts enumerates the part files under the search root.
func (s *Service) ListParts() ([]partfs.PartInfo, error) {
	return s.parts.List()
}

// PartProperties returns every custom property of one part.
func (s *Service) PartProperties(ctx context.Context, identifier string) ([]models.Property, error) {
	path, err := s.parts.Resolve(identifier)
	if err != nil {
		return nil, err
	}
	var props []models.Property
	err = s.worker.Do(ctx, func(ctx context.Context) error {
		p, readErr := s.reader.Read(ctx, path)
		props = p
		return readErr
	})
	if err != nil {
		return nil, err
	}
	return props, nil
}
