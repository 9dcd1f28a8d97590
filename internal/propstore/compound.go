package propstore

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"

	"github.com/Leocrydis/SENomexLayers/internal/models"
)

// Stream names of the standard OLE property sets. CAD authoring tools store
// user-defined ("Custom") properties in the user-defined portion of the
// document summary set.
const (
	summaryStream    = "\x05SummaryInformation"
	docSummaryStream = "\x05DocumentSummaryInformation"
)

// builtinDocSummary lists the well-known property names of the first
// document-summary section. Anything else found in that stream came from the
// user-defined dictionary and belongs to the "Custom" section.
//
// The decoder flattens both sections of the stream into one property list, so
// the split here is by name rather than by section boundary. A user-defined
// property that reuses a built-in name ("Company", "Manager") is therefore
// attributed to the built-in half. Prefix-matched retrieval is unaffected as
// no built-in name carries the part prefixes this service looks up.
var builtinDocSummary = map[string]struct{}{
	"CodePage": {}, "Category": {}, "PresentationTarget": {}, "Bytes": {},
	"Lines": {}, "Paragraphs": {}, "Slides": {}, "Notes": {},
	"HiddenSlides": {}, "MMClips": {}, "ScaleCrop": {}, "HeadingPairs": {},
	"TitlesOfParts": {}, "Manager": {}, "Company": {}, "LinksUpToDate": {},
	"CharactersWithSpaces": {}, "SharedDoc": {}, "LinkBase": {}, "HLinks": {},
	"HyperlinksChanged": {}, "AppVersion": {},
}

// CompoundOpener reads OLE compound files (the container format of .psm and
// sibling CAD documents) directly from disk.
type CompoundOpener struct{}

// NewCompoundOpener returns the default Tier-1 opener.
func NewCompoundOpener() *CompoundOpener { return &CompoundOpener{} }

// Open opens the file strictly read-only and parses its compound-file
// directory. The returned store must be closed by the caller.
func (o *CompoundOpener) Open(path string) (Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("propstore: open %s: %w", path, err)
	}
	doc, err := mscfb.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("propstore: parse compound file %s: %w", path, err)
	}
	return &compoundStore{f: f, doc: doc}, nil
}

type compoundStore struct {
	f   *os.File
	doc *mscfb.Reader
}

// Sections walks the compound-file directory and decodes every property-set
// stream. The document-summary stream is split into its built-in and
// user-defined ("Custom") halves; streams that fail to decode as property
// sets are skipped rather than failing the whole read.
func (s *compoundStore) Sections() ([]models.Section, error) {
	props := msoleps.New()
	var out []models.Section

	for {
		entry, err := s.doc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("propstore: walk streams: %w", err)
		}
		if !strings.HasPrefix(entry.Name, "\x05") {
			continue
		}
		if err := props.Reset(entry); err != nil {
			continue
		}

		switch entry.Name {
		case docSummaryStream:
			builtin := models.Section{Name: "DocumentSummary"}
			custom := models.Section{Name: models.CustomSection}
			for _, p := range props.Property {
				mp := models.Property{Name: p.Name, Value: valueFrom(p.T.String())}
				if _, ok := builtinDocSummary[p.Name]; ok {
					builtin.Properties = append(builtin.Properties, mp)
				} else {
					custom.Properties = append(custom.Properties, mp)
				}
			}
			out = append(out, builtin, custom)
		case summaryStream:
			out = append(out, section("Summary", props))
		default:
			out = append(out, section(strings.TrimPrefix(entry.Name, "\x05"), props))
		}
	}
	return out, nil
}

func (s *compoundStore) Close() error { return s.f.Close() }

func section(name string, props *msoleps.Reader) models.Section {
	sec := models.Section{Name: name}
	for _, p := range props.Property {
		sec.Properties = append(sec.Properties, models.Property{
			Name:  p.Name,
			Value: valueFrom(p.T.String()),
		})
	}
	return sec
}

// valueFrom classifies a rendered property value into the typed union. The
// property-set decoder already stringifies every variant type, so typing here
// is inferred from the text and falls back to a plain string.
func valueFrom(s string) models.Value {
	switch s {
	case "true", "false":
		return models.BoolValue(s == "true")
	}
	if n, err := parseNumber(s); err == nil {
		return models.NumberValue(n)
	}
	if t, err := parseTime(s); err == nil {
		return models.TimeValue(t)
	}
	return models.StringValue(s)
}
