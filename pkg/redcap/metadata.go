package redcap

import (
	"context"
	"fmt"

	"github.com/usestring/redcap-go/internal/cache"
)

// metadataCache is shared across Project values so that several clients
// bound to the same project reuse one copy of the data dictionary.
var metadataCache, _ = cache.NewMetadataCache(32)

// ExportMetadataOptions narrows and shapes a data dictionary export.
type ExportMetadataOptions struct {
	Format Format   // defaults to FormatJSON
	Fields []string // limit to these fields
	Forms  []string // limit to fields on these forms
	Index  []string // table index override, FormatTable only
}

// ExportMetadata exports the project's data dictionary.
func (p *Project) ExportMetadata(ctx context.Context, opts ExportMetadataOptions) (*ExportResult, error) {
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}
	if !format.valid() {
		return nil, &UsageError{Message: fmt.Sprintf("unsupported format %q", format)}
	}

	pl := p.basePayload("metadata", format)
	pl.SetList("fields", opts.Fields)
	pl.SetList("forms", opts.Forms)

	decoded, _, err := p.execute(ctx, OpExportMetadata, pl, nil)
	if err != nil {
		return nil, err
	}
	return p.normalize(ctx, decoded, "metadata", format, opts.Index)
}

// ImportMetadataOptions configures a data dictionary import. Exactly one of
// Data and Raw supplies the dictionary: Data is serialized as JSON, Raw is
// sent verbatim in DataFormat.
type ImportMetadataOptions struct {
	Data         any
	Raw          string
	DataFormat   Format // wire format of Raw, defaults to FormatJSON
	ReturnFormat Format // defaults to FormatJSON
	DateFormat   string // YMD, MDY, or DMY; defaults to YMD
}

// ImportMetadata replaces the project's data dictionary and returns the
// number of fields imported. The cached dictionary is invalidated so the
// next read refetches the imported one.
func (p *Project) ImportMetadata(ctx context.Context, opts ImportMetadataOptions) (int, error) {
	pl := p.basePayload("metadata", FormatJSON)
	if err := setImportData(pl, opts.Data, opts.Raw, opts.DataFormat, opts.ReturnFormat); err != nil {
		return 0, err
	}
	pl.Set("dateFormat", defaultDateFormat(opts.DateFormat))

	decoded, _, err := p.execute(ctx, OpImportMetadata, pl, nil)
	if err != nil {
		return 0, err
	}
	count, err := importCount(decoded)
	if err != nil {
		return 0, err
	}
	metadataCache.Drop(p.cacheKey)
	return count, nil
}

// ExportFieldNamesOptions narrows and shapes an export-field-name export.
type ExportFieldNamesOptions struct {
	Format Format   // defaults to FormatJSON
	Field  string   // limit to this single field
	Index  []string // table index override, FormatTable only
}

// ExportFieldNames exports the mapping from dictionary field names to the
// field names records actually carry on export, where checkbox fields fan
// out into one column per choice.
func (p *Project) ExportFieldNames(ctx context.Context, opts ExportFieldNamesOptions) (*ExportResult, error) {
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}
	if !format.valid() {
		return nil, &UsageError{Message: fmt.Sprintf("unsupported format %q", format)}
	}

	pl := p.basePayload("exportFieldNames", format)
	if opts.Field != "" {
		pl.Set("field", opts.Field)
	}

	decoded, _, err := p.execute(ctx, OpExportFieldNames, pl, nil)
	if err != nil {
		return nil, err
	}
	return p.normalize(ctx, decoded, "exportFieldNames", format, opts.Index)
}

// Metadata returns the full data dictionary as decoded JSON objects. The
// result is fetched once per project and cached; concurrent first calls are
// collapsed into a single request.
func (p *Project) Metadata(ctx context.Context) ([]map[string]any, error) {
	if meta, ok := metadataCache.Get(p.cacheKey); ok {
		return meta, nil
	}

	v, err, _ := p.sf.Do("metadata", func() (any, error) {
		res, err := p.ExportMetadata(ctx, ExportMetadataOptions{Format: FormatJSON})
		if err != nil {
			return nil, err
		}
		metadataCache.Put(p.cacheKey, res.Records)
		return res.Records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]map[string]any), nil
}

// FieldNames returns the field names of the dictionary, in definition order.
func (p *Project) FieldNames(ctx context.Context) ([]string, error) {
	meta, err := p.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(meta))
	for _, field := range meta {
		names = append(names, asString(field["field_name"]))
	}
	return names, nil
}

// Forms returns the distinct form names of the dictionary, in definition
// order.
func (p *Project) Forms(ctx context.Context) ([]string, error) {
	meta, err := p.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var forms []string
	for _, field := range meta {
		form := asString(field["form_name"])
		if form == "" || seen[form] {
			continue
		}
		seen[form] = true
		forms = append(forms, form)
	}
	return forms, nil
}

// DefField returns the project's key field: the first field of the
// dictionary, which identifies records in every export.
func (p *Project) DefField(ctx context.Context) (string, error) {
	meta, err := p.Metadata(ctx)
	if err != nil {
		return "", err
	}
	if len(meta) == 0 {
		return "", &UsageError{Message: "project has an empty data dictionary"}
	}
	return asString(meta[0]["field_name"]), nil
}

// FilterMetadata returns the value of one dictionary attribute for every
// field, in definition order. An attribute no field defines yields an error
// rather than a column of blanks.
func (p *Project) FilterMetadata(ctx context.Context, key string) ([]string, error) {
	meta, err := p.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(meta))
	found := false
	for _, m := range meta {
		v, ok := m[key]
		if ok {
			found = true
		}
		out = append(out, asString(v))
	}
	if len(meta) > 0 && !found {
		return nil, &UsageError{Message: fmt.Sprintf("attribute %q is not part of the data dictionary", key)}
	}
	return out, nil
}

// metadataValue returns one attribute of one dictionary field, or an error
// when the field is not defined.
func (p *Project) metadataValue(ctx context.Context, field, key string) (string, error) {
	meta, err := p.Metadata(ctx)
	if err != nil {
		return "", err
	}
	for _, m := range meta {
		if asString(m["field_name"]) == field {
			return asString(m[key]), nil
		}
	}
	return "", &UsageError{Message: fmt.Sprintf("field %q is not defined in the data dictionary", field)}
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func defaultDateFormat(df string) string {
	if df == "" {
		return "YMD"
	}
	return df
}
