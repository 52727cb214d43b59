package query

import (
	"fmt"

	"github.com/itchyny/gojq"
)

// JQ is a compiled jq expression usable as a row predicate. It complements
// the verb-based Query type for matching logic the verbs cannot express,
// such as substring tests or arithmetic across fields.
type JQ struct {
	source string
	code   *gojq.Code
}

// CompileJQ parses and compiles a jq expression. The expression is evaluated
// once per row with the row bound as the input object; a row matches when
// any produced output is truthy (neither null nor false).
func CompileJQ(expression string) (*JQ, error) {
	parsed, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("query: invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("query: compiling jq expression: %w", err)
	}
	return &JQ{source: expression, code: code}, nil
}

func (j *JQ) String() string {
	return j.source
}

// Filter returns the returnKey value of every row the expression matches,
// deduplicated, in row order. Per-row evaluation errors (such as a type
// mismatch on one cell) skip the row rather than failing the whole filter.
func (j *JQ) Filter(rows []Record, returnKey string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, row := range rows {
		input := make(map[string]any, len(row))
		for k, v := range row {
			input[k] = v
		}
		if !j.matchRow(input) {
			continue
		}
		v := row[returnKey]
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}

func (j *JQ) matchRow(input map[string]any) bool {
	iter := j.code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return false
		}
		if _, isErr := v.(error); isErr {
			continue
		}
		if v != nil && v != false {
			return true
		}
	}
}
