package redcap

import (
	"context"
	"fmt"
)

// ExportEventsOptions narrows and shapes an event export.
type ExportEventsOptions struct {
	Format Format   // defaults to FormatJSON
	Arms   []string // limit to events on these arm numbers
	Index  []string // table index override, FormatTable only
}

// ExportEvents exports the events of a longitudinal project.
func (p *Project) ExportEvents(ctx context.Context, opts ExportEventsOptions) (*ExportResult, error) {
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}
	if !format.valid() {
		return nil, &UsageError{Message: fmt.Sprintf("unsupported format %q", format)}
	}

	pl := p.basePayload("event", format)
	pl.SetList("arms", opts.Arms)

	decoded, _, err := p.execute(ctx, OpExportEvents, pl, nil)
	if err != nil {
		return nil, err
	}
	return p.normalize(ctx, decoded, "event", format, opts.Index)
}

// ImportEventsOptions configures an event import. Exactly one of Data and
// Raw supplies the events.
type ImportEventsOptions struct {
	Data         any
	Raw          string
	DataFormat   Format // wire format of Raw, defaults to FormatJSON
	ReturnFormat Format // defaults to FormatJSON
	Override     bool   // replace all existing events instead of appending
}

// ImportEvents creates or updates events and returns how many were imported.
func (p *Project) ImportEvents(ctx context.Context, opts ImportEventsOptions) (int, error) {
	pl := newPayload(p.token, "event")
	pl.Set("action", "import")
	pl.Set("override", boolFlag(opts.Override))
	if err := setImportData(pl, opts.Data, opts.Raw, opts.DataFormat, opts.ReturnFormat); err != nil {
		return 0, err
	}

	decoded, _, err := p.execute(ctx, OpImportEvents, pl, nil)
	if err != nil {
		return 0, err
	}
	return importCount(decoded)
}

// DeleteEvents deletes the named unique events and returns how many were
// removed.
func (p *Project) DeleteEvents(ctx context.Context, events []string, returnFormat Format) (int, error) {
	if len(events) == 0 {
		return 0, &UsageError{Message: "no events named for deletion"}
	}

	pl := newPayload(p.token, "event")
	pl.Set("action", "delete")
	pl.Set(keyReturnFormat, string(returnFormatOrJSON(returnFormat)))
	pl.SetList("events", events)

	decoded, _, err := p.execute(ctx, OpDeleteEvents, pl, nil)
	if err != nil {
		return 0, err
	}
	return importCount(decoded)
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
