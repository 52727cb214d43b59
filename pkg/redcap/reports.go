package redcap

import (
	"context"
	"fmt"
)

// ExportReportOptions shapes a report export.
type ExportReportOptions struct {
	Format Format // defaults to FormatJSON

	RawOrLabel        string // "raw", "label", or "both" for values
	RawOrLabelHeaders string // "raw" or "label" for CSV headers
	// ExportCheckboxLabels takes effect only when RawOrLabel is "label",
	// matching record exports.
	ExportCheckboxLabels bool

	Index []string // table index override, FormatTable only
}

// ExportReport exports the rows of a saved report.
func (p *Project) ExportReport(ctx context.Context, reportID string, opts ExportReportOptions) (*ExportResult, error) {
	if reportID == "" {
		return nil, &UsageError{Message: "report identifier is required"}
	}
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}
	if !format.valid() {
		return nil, &UsageError{Message: fmt.Sprintf("unsupported format %q", format)}
	}

	pl := p.basePayload("report", format)
	pl.Set("report_id", reportID)
	if opts.RawOrLabel != "" {
		pl.Set("rawOrLabel", opts.RawOrLabel)
	}
	if opts.RawOrLabelHeaders != "" {
		pl.Set("rawOrLabelHeaders", opts.RawOrLabelHeaders)
	}
	if opts.ExportCheckboxLabels && opts.RawOrLabel == "label" {
		pl.Set("exportCheckboxLabel", "true")
	}

	decoded, _, err := p.execute(ctx, OpExportReport, pl, nil)
	if err != nil {
		return nil, err
	}
	return p.normalize(ctx, decoded, "report", format, opts.Index)
}
