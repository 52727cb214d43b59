package redcap

import (
	"context"
	"fmt"
)

// ExportArmsOptions narrows and shapes an arm export.
type ExportArmsOptions struct {
	Format Format   // defaults to FormatJSON
	Arms   []string // limit to these arm numbers
	Index  []string // table index override, FormatTable only
}

// ExportArms exports the arms of a longitudinal project.
func (p *Project) ExportArms(ctx context.Context, opts ExportArmsOptions) (*ExportResult, error) {
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}
	if !format.valid() {
		return nil, &UsageError{Message: fmt.Sprintf("unsupported format %q", format)}
	}

	pl := p.basePayload("arm", format)
	pl.SetList("arms", opts.Arms)

	decoded, _, err := p.execute(ctx, OpExportArms, pl, nil)
	if err != nil {
		return nil, err
	}
	return p.normalize(ctx, decoded, "arm", format, opts.Index)
}

// ImportArmsOptions configures an arm import. Exactly one of Data and Raw
// supplies the arms.
type ImportArmsOptions struct {
	Data         any
	Raw          string
	DataFormat   Format // wire format of Raw, defaults to FormatJSON
	ReturnFormat Format // defaults to FormatJSON
	Override     bool   // replace all existing arms instead of appending
}

// ImportArms creates or updates arms and returns how many were imported.
func (p *Project) ImportArms(ctx context.Context, opts ImportArmsOptions) (int, error) {
	pl := newPayload(p.token, "arm")
	pl.Set("action", "import")
	pl.Set("override", boolFlag(opts.Override))
	if err := setImportData(pl, opts.Data, opts.Raw, opts.DataFormat, opts.ReturnFormat); err != nil {
		return 0, err
	}

	decoded, _, err := p.execute(ctx, OpImportArms, pl, nil)
	if err != nil {
		return 0, err
	}
	return importCount(decoded)
}

// DeleteArms deletes the named arm numbers and returns how many were
// removed.
func (p *Project) DeleteArms(ctx context.Context, arms []string, returnFormat Format) (int, error) {
	if len(arms) == 0 {
		return 0, &UsageError{Message: "no arms named for deletion"}
	}

	pl := newPayload(p.token, "arm")
	pl.Set("action", "delete")
	pl.Set(keyReturnFormat, string(returnFormatOrJSON(returnFormat)))
	pl.SetList("arms", arms)

	decoded, _, err := p.execute(ctx, OpDeleteArms, pl, nil)
	if err != nil {
		return 0, err
	}
	return importCount(decoded)
}
