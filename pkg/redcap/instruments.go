package redcap

import (
	"context"
	"fmt"
)

// ExportFEMOptions narrows and shapes a form-event mapping export.
type ExportFEMOptions struct {
	Format Format   // defaults to FormatJSON
	Arms   []string // limit to mappings on these arm numbers
	Index  []string // table index override, FormatTable only
}

// ExportFormEventMappings exports the instrument-to-event mappings of a
// longitudinal project.
func (p *Project) ExportFormEventMappings(ctx context.Context, opts ExportFEMOptions) (*ExportResult, error) {
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}
	if !format.valid() {
		return nil, &UsageError{Message: fmt.Sprintf("unsupported format %q", format)}
	}

	pl := p.basePayload("formEventMapping", format)
	pl.SetList("arms", opts.Arms)

	decoded, _, err := p.execute(ctx, OpExportFEM, pl, nil)
	if err != nil {
		return nil, err
	}
	return p.normalize(ctx, decoded, "formEventMapping", format, opts.Index)
}
