package erp

// Term is one (field, operator, value) condition.
type Term [3]any

func Eq(field string, value any) Term  { return Term{field, "=", value} }
func Ne(field string, value any) Term  { return Term{field, "!=", value} }
func Gte(field string, value any) Term { return Term{field, ">=", value} }
func Lte(field string, value any) Term { return Term{field, "<=", value} }

// In matches any of values. values should be a slice.
func In(field string, values any) Term { return Term{field, "in", values} }

// Domain is a search filter in prefix notation. Adjacent terms are ANDed.
type Domain []any

// Where builds a domain ANDing every term.
func Where(terms ...Term) Domain {
	d := make(Domain, 0, len(terms))
	for _, t := range terms {
		d = append(d, t)
	}
	return d
}

func (d Domain) And(terms ...Term) Domain {
	out := make(Domain, 0, len(d)+len(terms))
	out = append(out, d...)
	for _, t := range terms {
		out = append(out, t)
	}
	return out
}

// Or matches either term.
func Or(left, right Term) Domain {
	return Domain{"|", left, right}
}

// Extend appends another domain, ANDing it with the receiver.
func (d Domain) Extend(other Domain) Domain {
	out := make(Domain, 0, len(d)+len(other))
	out = append(out, d...)
	return append(out, other...)
}
