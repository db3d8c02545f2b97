// Package erptest provides an in-memory erp.Reader for tests.
package erptest

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/smallbiznis/cuadra/internal/erp"
)

// Record is one stored row. Relations use the wire shape: [id, "name"]
// for many2one and []int64 for x2many.
type Record map[string]any

// Call is one observed request.
type Call struct {
	Model  string
	Method string
	Domain erp.Domain
	Fields []string
}

// Reader evaluates domains against stored records.
type Reader struct {
	mu      sync.Mutex
	records map[string][]Record
	schema  map[string]erp.Fields
	calls   []Call

	// Fail, when set, is consulted before every call. A non-nil error is
	// returned instead of data.
	Fail func(call Call, n int) error
}

func NewReader() *Reader {
	return &Reader{
		records: make(map[string][]Record),
		schema:  make(map[string]erp.Fields),
	}
}

// Add stores records for model.
func (r *Reader) Add(model string, recs ...Record) *Reader {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[model] = append(r.records[model], recs...)
	return r
}

// Schema overrides the fields reported for model. Without it the fields are
// derived from the stored records.
func (r *Reader) Schema(model string, fields ...string) *Reader {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := make(erp.Fields, len(fields))
	for _, name := range fields {
		f[name] = erp.Field{Type: "char", String: name}
	}
	r.schema[model] = f
	return r
}

// Calls returns a copy of the observed calls.
func (r *Reader) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns the calls made against model.
func (r *Reader) CallsTo(model string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Model == model {
			out = append(out, c)
		}
	}
	return out
}

func (r *Reader) observe(c Call) error {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	n := 0
	for _, prev := range r.calls {
		if prev.Model == c.Model && prev.Method == c.Method {
			n++
		}
	}
	fail := r.Fail
	r.mu.Unlock()
	if fail != nil {
		return fail(c, n)
	}
	return nil
}

func (r *Reader) SearchRead(ctx context.Context, model string, domain erp.Domain, fields []string, out any, opts ...erp.ReadOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.observe(Call{Model: model, Method: "search_read", Domain: domain, Fields: fields}); err != nil {
		return err
	}

	pred, err := compile(domain)
	if err != nil {
		return err
	}

	r.mu.Lock()
	stored := append([]Record(nil), r.records[model]...)
	r.mu.Unlock()
	sort.SliceStable(stored, func(i, j int) bool { return idOf(stored[i]) < idOf(stored[j]) })

	rows := make([]map[string]any, 0, len(stored))
	for _, rec := range stored {
		if !pred(rec) {
			continue
		}
		rows = append(rows, project(rec, fields))
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (r *Reader) FieldsGet(ctx context.Context, model string) (erp.Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.observe(Call{Model: model, Method: "fields_get"}); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.schema[model]; ok {
		return f, nil
	}
	recs, ok := r.records[model]
	if !ok {
		return nil, &erp.RemoteError{Code: 200, Message: fmt.Sprintf("Object %s doesn't exist", model), Exception: "builtins.KeyError"}
	}
	f := erp.Fields{"id": {Type: "integer"}}
	for _, rec := range recs {
		for name := range rec {
			f[name] = erp.Field{Type: "char", String: name}
		}
	}
	return f, nil
}

func project(rec Record, fields []string) map[string]any {
	row := map[string]any{"id": rec["id"]}
	if len(fields) == 0 {
		for k, v := range rec {
			row[k] = v
		}
		return row
	}
	for _, name := range fields {
		v, ok := rec[name]
		if !ok {
			v = false
		}
		row[name] = v
	}
	return row
}

func idOf(rec Record) int64 {
	id, _ := scalar(rec["id"]).(int64)
	return id
}

type predicate func(Record) bool

func compile(domain erp.Domain) (predicate, error) {
	items := []any(domain)
	var preds []predicate
	for len(items) > 0 {
		p, rest, err := parse(items)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
		items = rest
	}
	return func(rec Record) bool {
		for _, p := range preds {
			if !p(rec) {
				return false
			}
		}
		return true
	}, nil
}

func parse(items []any) (predicate, []any, error) {
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("erptest: truncated domain")
	}
	switch head := items[0].(type) {
	case string:
		switch head {
		case "|", "&":
			left, rest, err := parse(items[1:])
			if err != nil {
				return nil, nil, err
			}
			right, rest, err := parse(rest)
			if err != nil {
				return nil, nil, err
			}
			if head == "|" {
				return func(r Record) bool { return left(r) || right(r) }, rest, nil
			}
			return func(r Record) bool { return left(r) && right(r) }, rest, nil
		case "!":
			inner, rest, err := parse(items[1:])
			if err != nil {
				return nil, nil, err
			}
			return func(r Record) bool { return !inner(r) }, rest, nil
		}
		return nil, nil, fmt.Errorf("erptest: unknown operator %q", head)
	case erp.Term:
		p, err := term(head)
		return p, items[1:], err
	default:
		return nil, nil, fmt.Errorf("erptest: unexpected domain item %T", head)
	}
}

func term(t erp.Term) (predicate, error) {
	field, _ := t[0].(string)
	op, _ := t[1].(string)
	want := t[2]
	switch op {
	case "=":
		return func(r Record) bool { return matchesAny(r[field], []any{want}) }, nil
	case "!=":
		return func(r Record) bool { return !matchesAny(r[field], []any{want}) }, nil
	case "in":
		values := toSlice(want)
		return func(r Record) bool { return matchesAny(r[field], values) }, nil
	case "not in":
		values := toSlice(want)
		return func(r Record) bool { return !matchesAny(r[field], values) }, nil
	case ">=", "<=", ">", "<":
		return func(r Record) bool { return compare(r[field], want, op) }, nil
	}
	return nil, fmt.Errorf("erptest: unsupported operator %q", op)
}

// matchesAny applies the ERP's relational semantics: a many2one matches on
// its id and an x2many matches when any member does.
func matchesAny(got any, values []any) bool {
	candidates := []any{got}
	if list, ok := got.([]int64); ok {
		candidates = candidates[:0]
		for _, id := range list {
			candidates = append(candidates, id)
		}
	}
	for _, c := range candidates {
		key := fmt.Sprint(scalar(c))
		for _, v := range values {
			if key == fmt.Sprint(scalar(v)) {
				return true
			}
		}
	}
	return false
}

func compare(got, want any, op string) bool {
	g, w := scalar(got), scalar(want)
	var cmp int
	switch gv := g.(type) {
	case int64:
		wv, ok := w.(int64)
		if !ok {
			return false
		}
		cmp = compareOrdered(gv, wv)
	case float64:
		wv, ok := w.(float64)
		if !ok {
			return false
		}
		cmp = compareOrdered(gv, wv)
	case string:
		wv, ok := w.(string)
		if !ok || gv == "" {
			return false
		}
		cmp = compareOrdered(gv, wv)
	default:
		return false
	}
	switch op {
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	default:
		return cmp < 0
	}
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// scalar reduces a stored value to a comparable key: integers become int64
// and a many2one pair becomes its id.
func scalar(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	case []any:
		if len(x) > 0 {
			return scalar(x[0])
		}
		return nil
	}
	return v
}

func toSlice(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

var _ erp.Reader = (*Reader)(nil)
