// Package query evaluates field-comparison predicates against in-memory
// record sets fetched from the data capture API.
//
// A Query matches a single field against one or more comparison verbs; a
// Group joins Queries (or nested Groups) with AND/OR logic into an
// arbitrary-depth expression tree. Evaluation is purely functional over an
// immutable snapshot of rows; match sets are tracked as roaring bitmaps and
// projected onto a caller-chosen return key at the end.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// Record is one exported row, field name to raw cell value.
type Record = map[string]string

// QType selects the coercion applied to cell values before comparison.
type QType string

const (
	Number  QType = "number"
	Integer QType = "integer"
	Date    QType = "date_ymd"
	Email   QType = "email"
	String  QType = "string"
)

// Verb is a comparison operator name.
type Verb string

const (
	Eq Verb = "eq"
	Ne Verb = "ne"
	Gt Verb = "gt"
	Ge Verb = "ge"
	Lt Verb = "lt"
	Le Verb = "le"
)

// verbOrder fixes a deterministic evaluation order for the comparison map.
var verbOrder = []Verb{Eq, Ne, Gt, Ge, Lt, Le}

// Logic joins adjacent members of a Group.
type Logic string

const (
	And Logic = "AND"
	Or  Logic = "OR"
)

// ValidationError reports a predicate rejected at construction time: an
// unknown comparison verb, an empty comparison set, or a combinator other
// than AND/OR. It never arises during filtering.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "query: " + e.Message
}

// Node is one node of a filter expression tree: either a Query leaf or a
// Group. The set of implementations is closed to this package.
type Node interface {
	// Fields returns every field name the node compares against.
	Fields() []string

	fmt.Stringer

	match(ev *evaluator) (*roaring.Bitmap, error)
}

// evaluator interns return-key values so that match sets from different
// rows carrying the same key collapse into one bitmap position.
type evaluator struct {
	rows      []Record
	returnKey string
	ids       map[string]uint32
	vals      []string
}

func (ev *evaluator) id(v string) uint32 {
	if id, ok := ev.ids[v]; ok {
		return id
	}
	id := uint32(len(ev.vals))
	ev.ids[v] = id
	ev.vals = append(ev.vals, v)
	return id
}

// Filter evaluates the expression tree against rows and returns the
// returnKey value of every matching row, deduplicated, in first-match order.
func Filter(n Node, rows []Record, returnKey string) ([]string, error) {
	ev := &evaluator{rows: rows, returnKey: returnKey, ids: make(map[string]uint32)}
	bm, err := n.match(ev)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, ev.vals[it.Next()])
	}
	return out, nil
}

type comparison struct {
	verb    Verb
	operand string
}

// Query matches one field against one or more comparison verbs. Multiple
// verbs on a single Query are ANDed together.
type Query struct {
	field string
	qtype QType
	cmps  []comparison
}

// New builds a Query over field. comparisons maps verbs from
// {eq, ne, gt, ge, lt, le} to literal operands; any other verb is rejected
// here, never at filter time.
func New(field string, comparisons map[Verb]string, qtype QType) (*Query, error) {
	if field == "" {
		return nil, &ValidationError{Message: "field name is empty"}
	}
	if len(comparisons) == 0 {
		return nil, &ValidationError{Message: fmt.Sprintf("no comparisons given for field %q", field)}
	}
	known := make(map[Verb]bool, len(verbOrder))
	for _, v := range verbOrder {
		known[v] = true
	}
	for v := range comparisons {
		if !known[v] {
			return nil, &ValidationError{Message: fmt.Sprintf("unknown comparison verb %q", v)}
		}
	}
	if qtype == "" {
		qtype = Number
	}
	q := &Query{field: field, qtype: qtype}
	for _, v := range verbOrder {
		if operand, ok := comparisons[v]; ok {
			q.cmps = append(q.cmps, comparison{verb: v, operand: operand})
		}
	}
	return q, nil
}

// Fields returns the single field the Query compares against.
func (q *Query) Fields() []string {
	return []string{q.field}
}

func (q *Query) String() string {
	parts := make([]string, len(q.cmps))
	for i, c := range q.cmps {
		parts[i] = fmt.Sprintf("%s:%s", c.verb, c.operand)
	}
	return fmt.Sprintf("%s %s", q.field, strings.Join(parts, " AND "))
}

// Filter evaluates the Query alone. See the package-level Filter.
func (q *Query) Filter(rows []Record, returnKey string) ([]string, error) {
	return Filter(q, rows, returnKey)
}

func (q *Query) match(ev *evaluator) (*roaring.Bitmap, error) {
	if len(ev.rows) == 0 {
		return roaring.New(), nil
	}
	coerce, err := coercerFor(q.qtype)
	if err != nil {
		return nil, err
	}
	var out *roaring.Bitmap
	for _, c := range q.cmps {
		operand, err := coerce(c.operand)
		if err != nil {
			return nil, fmt.Errorf("query: coercing operand %q for field %q: %w", c.operand, q.field, err)
		}
		set := roaring.New()
		for _, row := range ev.rows {
			got, err := coerce(row[q.field])
			if err != nil {
				// Blank or malformed cell: the row cannot match.
				continue
			}
			if holds(c.verb, got.cmp(operand)) {
				set.Add(ev.id(row[ev.returnKey]))
			}
		}
		if out == nil {
			out = set
			continue
		}
		out.And(set)
	}
	return out, nil
}

// Group joins Queries and nested Groups with AND/OR logic. A Group with n
// members always carries exactly n-1 connectors.
type Group struct {
	members []Node
	logic   []Logic
}

// NewGroup starts a Group from its first member.
func NewGroup(first Node) *Group {
	return &Group{members: []Node{first}}
}

// Add appends a member joined to the previous one by logic, which must be
// "AND" or "OR" (case-insensitive).
func (g *Group) Add(n Node, logic string) error {
	l := Logic(strings.ToUpper(logic))
	if l != And && l != Or {
		return &ValidationError{Message: fmt.Sprintf("members can only be joined with AND or OR, got %q", logic)}
	}
	g.members = append(g.members, n)
	g.logic = append(g.logic, l)
	return nil
}

// Len returns the number of members in the Group.
func (g *Group) Len() int {
	return len(g.members)
}

// Fields returns every field name referenced anywhere in the Group.
func (g *Group) Fields() []string {
	var out []string
	for _, m := range g.members {
		out = append(out, m.Fields()...)
	}
	return out
}

func (g *Group) String() string {
	if len(g.members) == 1 {
		return g.members[0].String()
	}
	var b strings.Builder
	for i, m := range g.members {
		if i > 0 {
			fmt.Fprintf(&b, " %s ", g.logic[i-1])
		}
		if sub, ok := m.(*Group); ok {
			fmt.Fprintf(&b, "(%s)", sub.String())
			continue
		}
		b.WriteString(m.String())
	}
	return b.String()
}

// Filter evaluates the Group. See the package-level Filter.
func (g *Group) Filter(rows []Record, returnKey string) ([]string, error) {
	return Filter(g, rows, returnKey)
}

func (g *Group) match(ev *evaluator) (*roaring.Bitmap, error) {
	var out *roaring.Bitmap
	for i, m := range g.members {
		bm, err := m.match(ev)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			out = bm
			continue
		}
		if g.logic[i-1] == And {
			out.And(bm)
		} else {
			out.Or(bm)
		}
	}
	return out, nil
}

// value is a coerced cell with a total order within its kind.
type value struct {
	num  float64
	date time.Time
	str  string
	kind QType
}

func (v value) cmp(o value) int {
	switch v.kind {
	case Number:
		switch {
		case v.num < o.num:
			return -1
		case v.num > o.num:
			return 1
		}
		return 0
	case Date:
		return v.date.Compare(o.date)
	default:
		return strings.Compare(v.str, o.str)
	}
}

// dateLayout is the only accepted date cell format.
const dateLayout = "2006-01-02"

// coercerFor selects the coercion function for a qtype. Searching by email
// is deliberately unsupported.
func coercerFor(qt QType) (func(string) (value, error), error) {
	switch qt {
	case Number, Integer:
		return func(s string) (value, error) {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return value{}, err
			}
			return value{kind: Number, num: f}, nil
		}, nil
	case Date:
		return func(s string) (value, error) {
			t, err := time.Parse(dateLayout, strings.TrimSpace(s))
			if err != nil {
				return value{}, err
			}
			return value{kind: Date, date: t}, nil
		}, nil
	case Email:
		return nil, fmt.Errorf("query: filtering by email is not supported")
	default:
		return func(s string) (value, error) {
			return value{kind: String, str: s}, nil
		}, nil
	}
}

func holds(verb Verb, c int) bool {
	switch verb {
	case Eq:
		return c == 0
	case Ne:
		return c != 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	}
	return false
}
