package redcap

import (
	"context"
	"fmt"
)

// ExportUsersOptions shapes a user export.
type ExportUsersOptions struct {
	Format Format   // defaults to FormatJSON
	Index  []string // table index override, FormatTable only
}

// ExportUsers exports the users of the project with their permissions.
func (p *Project) ExportUsers(ctx context.Context, opts ExportUsersOptions) (*ExportResult, error) {
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}
	if !format.valid() {
		return nil, &UsageError{Message: fmt.Sprintf("unsupported format %q", format)}
	}

	pl := p.basePayload("user", format)

	decoded, _, err := p.execute(ctx, OpExportUsers, pl, nil)
	if err != nil {
		return nil, err
	}
	return p.normalize(ctx, decoded, "user", format, opts.Index)
}
