// Package benchmark scores a flattened process against sector
// best-practice text supplied by an external collaborator.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/dusk-indust/sopflow/internal/benchdata"
)

var (
	// ErrCollaboratorTimeout is returned when the benchmark fetch does not
	// finish before its deadline.
	ErrCollaboratorTimeout = errors.New("benchmark: collaborator timed out")

	// ErrUnknownSector is returned by sources that have no text for a sector.
	ErrUnknownSector = errors.New("benchmark: unknown sector")
)

// Document is the benchmark collaborator's response.
type Document struct {
	Sector          string `json:"sector"`
	SourceReference string `json:"source_reference"`
	Content         string `json:"content"`
}

// Source fetches benchmark text for a sector.
type Source interface {
	Fetch(ctx context.Context, sector string) (*Document, error)
}

// Compile-time interface checks.
var (
	_ Source = (*HTTPSource)(nil)
	_ Source = EmbeddedSource{}
	_ Source = StaticSource{}
	_ Source = FallbackSource{}
)

// EmbeddedSource serves the sector texts compiled into the binary.
type EmbeddedSource struct{}

// Fetch returns the embedded text for sector.
func (EmbeddedSource) Fetch(ctx context.Context, sector string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify(err)
	}
	text, err := benchdata.Text(sector)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSector, sector)
	}
	norm := benchdata.NormalizeSector(sector)
	return &Document{
		Sector:          norm,
		SourceReference: fmt.Sprintf(benchdata.ReferenceURL, norm),
		Content:         text,
	}, nil
}

// StaticSource always returns the same document, whatever the sector.
type StaticSource struct {
	Doc Document
}

// Fetch returns a copy of the configured document.
func (s StaticSource) Fetch(ctx context.Context, _ string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify(err)
	}
	doc := s.Doc
	return &doc, nil
}

// FallbackSource tries Primary and, when it fails for any reason other than
// a caller deadline, Secondary.
type FallbackSource struct {
	Primary   Source
	Secondary Source
}

// Fetch implements Source.
func (f FallbackSource) Fetch(ctx context.Context, sector string) (*Document, error) {
	doc, err := f.Primary.Fetch(ctx, sector)
	if err == nil {
		return doc, nil
	}
	if ctx.Err() != nil || f.Secondary == nil {
		return nil, err
	}
	fallback, ferr := f.Secondary.Fetch(ctx, sector)
	if ferr != nil {
		return nil, fmt.Errorf("%w (fallback: %v)", err, ferr)
	}
	return fallback, nil
}

// Classify maps deadline and network timeout errors onto
// ErrCollaboratorTimeout. Other errors, and nil, pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCollaboratorTimeout) {
		return err
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %v", ErrCollaboratorTimeout, err)
	}
	return err
}
