package redcap

import (
	"context"
	"fmt"
)

// ExportProjectInfoOptions shapes a project attribute export.
type ExportProjectInfoOptions struct {
	Format Format   // defaults to FormatJSON
	Index  []string // table index override, FormatTable only
}

// ExportProjectInfo exports the project's attributes, such as its title,
// language, and production status.
func (p *Project) ExportProjectInfo(ctx context.Context, opts ExportProjectInfoOptions) (*ExportResult, error) {
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}
	if !format.valid() {
		return nil, &UsageError{Message: fmt.Sprintf("unsupported format %q", format)}
	}

	pl := p.basePayload("project", format)

	decoded, _, err := p.execute(ctx, OpExportProjectInfo, pl, nil)
	if err != nil {
		return nil, err
	}
	return p.normalize(ctx, decoded, "project", format, opts.Index)
}

// IsLongitudinal reports whether the project defines both events and arms.
// A service-side rejection of either export means the feature is disabled,
// so it counts as "not longitudinal" rather than an error. The answer is
// cached for the lifetime of the Project.
func (p *Project) IsLongitudinal(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.longitudinal != nil {
		v := *p.longitudinal
		p.mu.Unlock()
		return v, nil
	}
	p.mu.Unlock()

	events, err := p.ExportEvents(ctx, ExportEventsOptions{})
	if err != nil {
		if !IsRejected(err) {
			return false, err
		}
		events = &ExportResult{}
	}
	arms, err := p.ExportArms(ctx, ExportArmsOptions{})
	if err != nil {
		if !IsRejected(err) {
			return false, err
		}
		arms = &ExportResult{}
	}

	longitudinal := len(events.Records) > 0 && len(arms.Records) > 0

	p.mu.Lock()
	p.longitudinal = &longitudinal
	p.mu.Unlock()
	return longitudinal, nil
}
