package redcap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ExportRecordsOptions narrows and shapes a record export. List fields left
// empty are omitted from the request, which tells the server to apply its
// default (all records, all fields, and so on).
type ExportRecordsOptions struct {
	Format  Format   // defaults to FormatJSON
	Records []string // limit to these record identifiers
	Fields  []string // limit to these fields
	Forms   []string // limit to fields on these forms
	Events  []string // limit to these unique event names

	RawOrLabel        string // "raw", "label", or "both" for values
	RawOrLabelHeaders string // "raw" or "label" for CSV headers
	EventName         string // "label" or "unique"

	ExportSurveyFields     bool
	ExportDataAccessGroups bool
	// ExportCheckboxLabels exports checkbox labels instead of checked/
	// unchecked markers. It takes effect only when RawOrLabel is "label";
	// the field is withheld from the request otherwise because the server
	// misapplies it to raw exports.
	ExportCheckboxLabels bool

	FilterLogic    string    // server-side filter expression
	DateRangeBegin time.Time // only records created or modified after this
	DateRangeEnd   time.Time // only records created or modified before this

	Index []string // table index override, FormatTable only
}

// ExportRecords exports records from the project.
func (p *Project) ExportRecords(ctx context.Context, opts ExportRecordsOptions) (*ExportResult, error) {
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}
	if !format.valid() {
		return nil, &UsageError{Message: fmt.Sprintf("unsupported format %q", format)}
	}

	pl := p.basePayload("record", format)
	pl.SetList("records", opts.Records)
	pl.SetList("fields", opts.Fields)
	pl.SetList("forms", opts.Forms)
	pl.SetList("events", opts.Events)

	if opts.RawOrLabel != "" {
		pl.Set("rawOrLabel", opts.RawOrLabel)
	}
	if opts.RawOrLabelHeaders != "" {
		pl.Set("rawOrLabelHeaders", opts.RawOrLabelHeaders)
	}
	if opts.EventName != "" {
		pl.Set("eventName", opts.EventName)
	}
	if opts.ExportSurveyFields {
		pl.Set("exportSurveyFields", "true")
	}
	if opts.ExportDataAccessGroups {
		pl.Set("exportDataAccessGroups", "true")
	}
	if opts.ExportCheckboxLabels && opts.RawOrLabel == "label" {
		pl.Set("exportCheckboxLabel", "true")
	}
	if opts.FilterLogic != "" {
		pl.Set("filterLogic", opts.FilterLogic)
	}
	if !opts.DateRangeBegin.IsZero() {
		pl.Set("dateRangeBegin", opts.DateRangeBegin.Format(timestampLayout))
	}
	if !opts.DateRangeEnd.IsZero() {
		pl.Set("dateRangeEnd", opts.DateRangeEnd.Format(timestampLayout))
	}

	decoded, _, err := p.execute(ctx, OpExportRecords, pl, nil)
	if err != nil {
		return nil, err
	}
	return p.normalize(ctx, decoded, "record", format, opts.Index)
}

// ImportRecordsOptions configures a record import. Exactly one of Data and
// Raw supplies the records: Data is serialized as JSON, Raw is sent verbatim
// in DataFormat.
type ImportRecordsOptions struct {
	Data       any
	Raw        string
	DataFormat Format // wire format of Raw, defaults to FormatJSON

	ReturnFormat  Format // defaults to FormatJSON
	ReturnContent string // "count", "ids", or "nothing"; defaults to "count"

	Overwrite       bool   // blank incoming values erase stored values
	ForceAutoNumber bool   // assign fresh record identifiers on import
	DateFormat      string // YMD, MDY, or DMY; defaults to YMD
}

// ImportResult reports the outcome of a record import. Count is set when the
// request asked for a count, IDs when it asked for the imported identifiers,
// and Raw always carries the decoded response.
type ImportResult struct {
	Count int
	IDs   []string
	Raw   any
}

// ImportRecords imports records into the project.
func (p *Project) ImportRecords(ctx context.Context, opts ImportRecordsOptions) (*ImportResult, error) {
	pl := p.basePayload("record", FormatJSON)
	if err := setImportData(pl, opts.Data, opts.Raw, opts.DataFormat, opts.ReturnFormat); err != nil {
		return nil, err
	}

	behavior := "normal"
	if opts.Overwrite {
		behavior = "overwrite"
	}
	pl.Set("overwriteBehavior", behavior)

	returnContent := opts.ReturnContent
	if returnContent == "" {
		returnContent = "count"
	}
	switch returnContent {
	case "count", "ids", "nothing":
	default:
		return nil, &UsageError{Message: fmt.Sprintf("unsupported returnContent %q", returnContent)}
	}
	pl.Set("returnContent", returnContent)

	pl.Set("dateFormat", defaultDateFormat(opts.DateFormat))
	if opts.ForceAutoNumber {
		pl.Set("forceAutoNumber", "true")
	}

	decoded, _, err := p.execute(ctx, OpImportRecords, pl, nil)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Raw: decoded}
	switch returnContent {
	case "count":
		count, err := importCount(decoded)
		if err != nil {
			return nil, err
		}
		result.Count = count
	case "ids":
		ids, ok := decoded.([]any)
		if !ok {
			return nil, &DecodeError{Format: string(FormatJSON), Cause: fmt.Errorf("expected identifier list, got %T", decoded)}
		}
		result.IDs = make([]string, 0, len(ids))
		for _, id := range ids {
			result.IDs = append(result.IDs, asString(id))
		}
	}
	return result, nil
}

// DeleteRecords deletes the named records and returns how many were removed.
func (p *Project) DeleteRecords(ctx context.Context, records []string, returnFormat Format) (int, error) {
	if len(records) == 0 {
		return 0, &UsageError{Message: "no records named for deletion"}
	}

	pl := newPayload(p.token, "record")
	pl.Set("action", "delete")
	pl.Set(keyReturnFormat, string(returnFormatOrJSON(returnFormat)))
	pl.SetList("records", records)

	decoded, _, err := p.execute(ctx, OpDeleteRecords, pl, nil)
	if err != nil {
		return 0, err
	}
	return importCount(decoded)
}

// GenerateNextRecordName returns the next record identifier the server would
// auto-number.
func (p *Project) GenerateNextRecordName(ctx context.Context) (string, error) {
	pl := newPayload(p.token, "generateNextRecordName")
	pl.Set(keyFormat, string(FormatCSV))

	decoded, _, err := p.execute(ctx, OpGenerateNextRecordName, pl, nil)
	if err != nil {
		return "", err
	}
	name, ok := decoded.(string)
	if !ok {
		return "", &DecodeError{Format: string(FormatCSV), Cause: fmt.Errorf("unexpected body type %T", decoded)}
	}
	return strings.TrimSpace(name), nil
}

// setImportData installs the data field and the format pair on an import
// payload. Data and Raw are mutually exclusive.
func setImportData(pl *Payload, data any, raw string, dataFormat, returnFormat Format) error {
	switch {
	case data != nil && raw != "":
		return &UsageError{Message: "Data and Raw are mutually exclusive"}
	case data != nil:
		encoded, err := json.Marshal(data)
		if err != nil {
			return &UsageError{Message: fmt.Sprintf("serializing import data: %v", err)}
		}
		pl.Set(keyFormat, string(FormatJSON))
		pl.Set("data", string(encoded))
	case raw != "":
		if dataFormat == "" {
			dataFormat = FormatJSON
		}
		if dataFormat == FormatTable || !dataFormat.valid() {
			return &UsageError{Message: fmt.Sprintf("unsupported import data format %q", dataFormat)}
		}
		pl.Set(keyFormat, string(dataFormat))
		pl.Set("data", raw)
	default:
		return &UsageError{Message: "no import data supplied"}
	}

	pl.Set(keyReturnFormat, string(returnFormatOrJSON(returnFormat)))
	return nil
}

func returnFormatOrJSON(rf Format) Format {
	if rf == "" {
		return FormatJSON
	}
	return rf.wire()
}

// importCount extracts the count from an import or delete response. The
// server answers either a bare number or an object with a count member.
func importCount(decoded any) (int, error) {
	switch v := decoded.(type) {
	case float64:
		return int(v), nil
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil {
			return n, nil
		}
	case map[string]any:
		if c, ok := v["count"]; ok {
			if f, ok := c.(float64); ok {
				return int(f), nil
			}
		}
	}
	return 0, &DecodeError{Format: string(FormatJSON), Cause: fmt.Errorf("no count in response %v", decoded)}
}
