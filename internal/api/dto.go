package api

import (
	"github.com/Leocrydis/SENomexLayers/internal/batch"
	"github.com/Leocrydis/SENomexLayers/internal/models"
	"github.com/Leocrydis/SENomexLayers/internal/partfs"
)

// ResolveRequest is the request body for a batch resolve.
type ResolveRequest struct {
	Identifiers []string `json:"identifiers" example:"7xxxyy01,7xxxyy02" validate:"required"`
}

// ResolveResponse wraps a batch result. Lines carry the same matches in the
// CLI's one-line-per-match format.
type ResolveResponse struct {
	Matches     []models.Match     `json:"matches" validate:"required"`
	Diagnostics []batch.Diagnostic `json:"diagnostics" validate:"required"`
	Lines       []string           `json:"lines" validate:"required"`
}

// PartListResponse wraps the part listing.
type PartListResponse struct {
	Parts []partfs.PartInfo `json:"parts" validate:"required"`
	Total int               `json:"total" example:"42" validate:"required"`
}

// PropertyItem is one custom property in an API response.
type PropertyItem struct {
	Name  string `json:"name" example:"NOMEX_LAYERS_TOP" validate:"required"`
	Value string `json:"value" example:"3" validate:"required"`
}

// PropertiesResponse wraps one part's custom properties.
type PropertiesResponse struct {
	Identifier string         `json:"identifier" example:"7xxxyy01" validate:"required"`
	Properties []PropertyItem `json:"properties" validate:"required"`
}
