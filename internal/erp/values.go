package erp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The ERP encodes empty scalars and relations as JSON false. These types
// accept false and null as the zero value.

var (
	jsonFalse = []byte("false")
	jsonNull  = []byte("null")
)

func isEmpty(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, jsonFalse) || bytes.Equal(data, jsonNull)
}

// Many2One is a [id, "display name"] relation.
type Many2One struct {
	ID   int64
	Name string
}

func (m *Many2One) UnmarshalJSON(data []byte) error {
	*m = Many2One{}
	if isEmpty(data) {
		return nil
	}
	if data[0] != '[' {
		var id int64
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("many2one: %w", err)
		}
		m.ID = id
		return nil
	}
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("many2one: %w", err)
	}
	if len(pair) > 0 {
		if err := json.Unmarshal(pair[0], &m.ID); err != nil {
			return fmt.Errorf("many2one id: %w", err)
		}
	}
	if len(pair) > 1 {
		var name Text
		if err := json.Unmarshal(pair[1], &name); err != nil {
			return fmt.Errorf("many2one name: %w", err)
		}
		m.Name = string(name)
	}
	return nil
}

func (m Many2One) MarshalJSON() ([]byte, error) {
	if m.ID == 0 {
		return jsonFalse, nil
	}
	return json.Marshal([]any{m.ID, m.Name})
}

func (m Many2One) Valid() bool { return m.ID != 0 }

// Text is a char/selection field.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	if isEmpty(data) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// some selection fields are integer keyed
		var n json.Number
		if nerr := json.Unmarshal(data, &n); nerr != nil {
			return fmt.Errorf("text: %w", err)
		}
		s = n.String()
	}
	*t = Text(strings.TrimSpace(s))
	return nil
}

func (t Text) String() string { return string(t) }

// Float is a numeric field.
type Float float64

func (f *Float) UnmarshalJSON(data []byte) error {
	if isEmpty(data) {
		*f = 0
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("float: %w", err)
	}
	*f = Float(v)
	return nil
}

// OptionalInt is an integer or selection code that may be unset. Raw keeps
// a non-numeric selection key verbatim.
type OptionalInt struct {
	Value int
	Set   bool
	Raw   string
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	*o = OptionalInt{}
	if isEmpty(data) {
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("optional int: %w", err)
	}
	switch v := raw.(type) {
	case float64:
		o.Value, o.Set = int(v), true
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err != nil {
			o.Raw = strings.TrimSpace(v)
			return nil
		}
		o.Value, o.Set = n, true
	}
	return nil
}

// Ptr returns nil when the value is unset.
func (o OptionalInt) Ptr() *int {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// Amount is a monetary field decoded into a decimal.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if isEmpty(data) {
		a.Decimal = decimal.Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	a.Decimal = d
	return nil
}

func NewAmount(v float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(v)}
}

// IDList is a one2many/many2many id list.
type IDList []int64

func (l *IDList) UnmarshalJSON(data []byte) error {
	if isEmpty(data) {
		*l = nil
		return nil
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("id list: %w", err)
	}
	*l = ids
	return nil
}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// dateLayouts are tried in order. Zoned layouts are converted to UTC.
var dateLayouts = []string{
	dateLayout,
	dateTimeLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.RFC3339Nano,
}

// Date is a date or datetime field in server (UTC) time. A value no layout
// matches decodes as the zero date and is kept in Invalid.
type Date struct {
	time.Time
	Invalid string
}

func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	if isEmpty(data) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		d.Invalid = string(data)
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		d.Invalid = s
		return nil
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return jsonNull, nil
	}
	return json.Marshal(d.Format(dateTimeLayout))
}

// ParseDate accepts the date and datetime layouts the ERP and its custom
// fields emit.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: no matching layout", s)
}

// FormatDateTime renders a timestamp for use in a domain.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(dateTimeLayout)
}
