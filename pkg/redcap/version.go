package redcap

import (
	"context"
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// ExportVersion returns the server's REDCap version.
func (p *Project) ExportVersion(ctx context.Context) (*goversion.Version, error) {
	pl := newPayload(p.token, "version")

	decoded, _, err := p.execute(ctx, OpExportVersion, pl, nil)
	if err != nil {
		return nil, err
	}
	body, ok := decoded.([]byte)
	if !ok {
		return nil, &DecodeError{Format: "version", Cause: fmt.Errorf("unexpected body type %T", decoded)}
	}

	v, err := goversion.NewVersion(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, &DecodeError{Format: "version", Cause: err}
	}
	return v, nil
}
