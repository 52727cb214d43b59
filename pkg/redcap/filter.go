package redcap

import (
	"context"
	"fmt"

	"github.com/usestring/redcap-go/pkg/query"
)

// Filter evaluates a query tree against the project's records and exports
// the matching subset. The tree's fields must all be defined in the data
// dictionary. When outputFields is empty only the key field is returned.
func (p *Project) Filter(ctx context.Context, q query.Node, outputFields []string) ([]map[string]any, error) {
	if q == nil {
		return nil, &UsageError{Message: "no query supplied"}
	}

	names, err := p.FieldNames(ctx)
	if err != nil {
		return nil, err
	}
	defined := make(map[string]bool, len(names))
	for _, name := range names {
		defined[name] = true
	}
	for _, field := range q.Fields() {
		if !defined[field] {
			return nil, &UsageError{Message: fmt.Sprintf("query field %q is not defined in the data dictionary", field)}
		}
	}

	defField, err := p.DefField(ctx)
	if err != nil {
		return nil, err
	}

	exportFields := append([]string{defField}, q.Fields()...)
	res, err := p.ExportRecords(ctx, ExportRecordsOptions{
		Format:     FormatJSON,
		Fields:     dedupe(exportFields),
		RawOrLabel: "raw",
	})
	if err != nil {
		return nil, err
	}

	matches, err := query.Filter(q, stringRows(res.Records), defField)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []map[string]any{}, nil
	}

	if len(outputFields) == 0 {
		outputFields = []string{defField}
	}
	out, err := p.ExportRecords(ctx, ExportRecordsOptions{
		Format:  FormatJSON,
		Records: matches,
		Fields:  outputFields,
	})
	if err != nil {
		return nil, err
	}
	return out.Records, nil
}

// stringRows flattens decoded JSON records into string cells. Missing and
// null values become "".
func stringRows(records []map[string]any) []query.Record {
	rows := make([]query.Record, 0, len(records))
	for _, rec := range records {
		row := make(query.Record, len(rec))
		for k, v := range rec {
			if v == nil {
				row[k] = ""
				continue
			}
			row[k] = asString(v)
		}
		rows = append(rows, row)
	}
	return rows
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
