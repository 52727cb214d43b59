package redcap

import (
	"context"
	"fmt"

	"github.com/usestring/redcap-go/pkg/table"
)

// ExportResult is the union of export output shapes. Exactly one of the
// payload fields is populated, selected by Format: Records for FormatJSON,
// Text for FormatCSV and FormatXML, Table for FormatTable.
type ExportResult struct {
	Format  Format
	Records []map[string]any
	Text    string
	Table   *table.Table
}

// normalize shapes a decoded body into an ExportResult. For FormatTable the
// index columns default per content kind unless the caller overrides them.
func (p *Project) normalize(ctx context.Context, decoded any, contentKind string, format Format, index []string) (*ExportResult, error) {
	switch format {
	case FormatJSON:
		records, err := asRecords(decoded)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Format: format, Records: records}, nil
	case FormatCSV, FormatXML:
		text, ok := decoded.(string)
		if !ok {
			return nil, &DecodeError{Format: string(format), Cause: fmt.Errorf("unexpected body type %T", decoded)}
		}
		return &ExportResult{Format: format, Text: text}, nil
	case FormatTable:
		text, ok := decoded.(string)
		if !ok {
			return nil, &DecodeError{Format: string(format), Cause: fmt.Errorf("unexpected body type %T", decoded)}
		}
		if index == nil {
			var err error
			index, err = p.defaultIndex(ctx, contentKind)
			if err != nil {
				return nil, err
			}
		}
		tbl, err := table.FromCSV(text, index...)
		if err != nil {
			return nil, &DecodeError{Format: string(format), Cause: err}
		}
		return &ExportResult{Format: format, Table: tbl}, nil
	}
	return nil, &UsageError{Message: fmt.Sprintf("unsupported format %q", format)}
}

// defaultIndex picks the table index columns for a content kind. Record-like
// content indexes on the project's key field, extended with the event column
// when the project is longitudinal.
func (p *Project) defaultIndex(ctx context.Context, contentKind string) ([]string, error) {
	switch contentKind {
	case "metadata":
		return []string{"field_name"}, nil
	case "exportFieldNames":
		return []string{"original_field_name"}, nil
	case "record", "report":
		def, err := p.DefField(ctx)
		if err != nil {
			return nil, err
		}
		longitudinal, err := p.IsLongitudinal(ctx)
		if err != nil {
			return nil, err
		}
		if longitudinal {
			return []string{def, "redcap_event_name"}, nil
		}
		return []string{def}, nil
	}
	return nil, nil
}

// asRecords asserts the decoded JSON is a list of objects. A bare object is
// wrapped into a single-element list so callers see one shape.
func asRecords(decoded any) ([]map[string]any, error) {
	switch v := decoded.(type) {
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, &DecodeError{Format: string(FormatJSON), Cause: fmt.Errorf("list element is %T, not an object", item)}
			}
			out = append(out, obj)
		}
		return out, nil
	case map[string]any:
		return []map[string]any{v}, nil
	case nil:
		return nil, nil
	}
	return nil, &DecodeError{Format: string(FormatJSON), Cause: fmt.Errorf("unexpected body type %T", decoded)}
}
