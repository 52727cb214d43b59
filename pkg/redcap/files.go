package redcap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/usestring/redcap-go/pkg/contenttype"
)

// FileOptions locates a file slot beyond the record and field: the event for
// longitudinal projects and the instance for repeating instruments.
type FileOptions struct {
	Event          string
	RepeatInstance string
	ReturnFormat   Format // defaults to FormatJSON
}

// ExportFile downloads the document stored in a file field. It returns the
// raw bytes plus the Content-Type parameters of the response, which carry
// the stored file name under "name".
func (p *Project) ExportFile(ctx context.Context, record, field string, opts FileOptions) ([]byte, map[string]string, error) {
	if err := p.checkFileField(ctx, field); err != nil {
		return nil, nil, err
	}

	pl := p.filePayload("export", record, field, opts)

	decoded, headers, err := p.execute(ctx, OpExportFile, pl, nil)
	if err != nil {
		return nil, nil, err
	}
	content, ok := decoded.([]byte)
	if !ok {
		return nil, nil, &DecodeError{Format: "binary", Cause: fmt.Errorf("unexpected body type %T", decoded)}
	}

	ct := headers.Get("Content-Type")
	slog.Debug("file exported",
		slog.String("field", field),
		slog.String("category", string(contenttype.Classify(ct))),
		slog.Int("bytes", len(content)),
	)
	return content, contenttype.Params(ct), nil
}

// ImportFile uploads a document into a file field, replacing any document
// already stored there.
func (p *Project) ImportFile(ctx context.Context, record, field, name string, content io.Reader, opts FileOptions) error {
	if err := p.checkFileField(ctx, field); err != nil {
		return err
	}

	pl := p.filePayload("import", record, field, opts)

	_, _, err := p.execute(ctx, OpImportFile, pl, &FileUpload{Name: name, Reader: content})
	return err
}

// DeleteFile removes the document stored in a file field.
func (p *Project) DeleteFile(ctx context.Context, record, field string, opts FileOptions) error {
	if err := p.checkFileField(ctx, field); err != nil {
		return err
	}

	pl := p.filePayload("delete", record, field, opts)

	_, _, err := p.execute(ctx, OpDeleteFile, pl, nil)
	return err
}

func (p *Project) filePayload(action, record, field string, opts FileOptions) *Payload {
	pl := newPayload(p.token, "file")
	pl.Set("action", action)
	pl.Set("record", record)
	pl.Set("field", field)
	pl.Set(keyReturnFormat, string(returnFormatOrJSON(opts.ReturnFormat)))
	if opts.Event != "" {
		pl.Set("event", opts.Event)
	}
	if opts.RepeatInstance != "" {
		pl.Set("repeat_instance", opts.RepeatInstance)
	}
	return pl
}

// checkFileField verifies the field exists and is file-typed before any
// upload or download is attempted.
func (p *Project) checkFileField(ctx context.Context, field string) error {
	fieldType, err := p.metadataValue(ctx, field, "field_type")
	if err != nil {
		return err
	}
	if fieldType != "file" {
		return &UsageError{Message: fmt.Sprintf("field %q is not a file field", field)}
	}
	return nil
}
