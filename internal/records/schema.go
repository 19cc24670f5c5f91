// Package records defines the typed surveillance session and specimen rows,
// the declarative column schema used to move them to and from text frames,
// and the tables that carry them between pipeline stages.
package records

import (
	"strconv"
	"strings"
	"time"

	"github.com/vectorcam/vectorinsight/internal/dataset"
)

// Kind is the value type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindTime
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Column describes one recognised column of a record type T.
type Column[T any] struct {
	Name string
	Kind Kind
	// Fill replaces a missing value after coercion. Empty means no fill.
	Fill string
	// Derived columns are computed by the cleaner and never read from input.
	Derived bool

	set    func(rec *T, raw string)
	format func(rec *T) string
}

// Set coerces raw into rec. Unparseable values become null.
func (c Column[T]) Set(rec *T, raw string) {
	c.set(rec, raw)
}

// Format renders the column value of rec as text. Nulls render as "".
func (c Column[T]) Format(rec *T) string {
	return c.format(rec)
}

// Schema is the ordered list of recognised columns of T.
type Schema[T any] struct {
	Columns []Column[T]
	extra   func(rec *T) *map[string]string
	byName  map[string]int
}

func newSchema[T any](extra func(*T) *map[string]string, cols ...Column[T]) *Schema[T] {
	s := &Schema[T]{Columns: cols, extra: extra, byName: make(map[string]int, len(cols))}
	for i, c := range cols {
		s.byName[c.Name] = i
	}
	return s
}

// Lookup returns the column named name.
func (s *Schema[T]) Lookup(name string) (Column[T], bool) {
	i, ok := s.byName[name]
	if !ok {
		return Column[T]{}, false
	}
	return s.Columns[i], true
}

// Derived returns the names of derived columns in schema order.
func (s *Schema[T]) Derived() []string {
	var out []string
	for _, c := range s.Columns {
		if c.Derived {
			out = append(out, c.Name)
		}
	}
	return out
}

// Extra returns the map of unrecognised cells of rec, allocating it if needed.
func (s *Schema[T]) Extra(rec *T) map[string]string {
	m := s.extra(rec)
	if *m == nil {
		*m = make(map[string]string)
	}
	return *m
}

func stringCol[T any](name, fill string, field func(*T) *string) Column[T] {
	return Column[T]{
		Name: name,
		Kind: KindString,
		Fill: fill,
		set: func(rec *T, raw string) {
			if dataset.IsNull(raw) {
				*field(rec) = ""
				return
			}
			*field(rec) = raw
		},
		format: func(rec *T) string { return *field(rec) },
	}
}

func intCol[T any](name string, field func(*T) **int64) Column[T] {
	return Column[T]{
		Name: name,
		Kind: KindInt,
		set: func(rec *T, raw string) {
			if n, ok := dataset.ParseInt(raw); ok {
				*field(rec) = &n
				return
			}
			*field(rec) = nil
		},
		format: func(rec *T) string {
			if v := *field(rec); v != nil {
				return dataset.FormatInt(*v)
			}
			return ""
		},
	}
}

func floatCol[T any](name string, field func(*T) **float64) Column[T] {
	return Column[T]{
		Name: name,
		Kind: KindFloat,
		set: func(rec *T, raw string) {
			if f, ok := dataset.ParseFloat(raw); ok {
				*field(rec) = &f
				return
			}
			*field(rec) = nil
		},
		format: func(rec *T) string {
			if v := *field(rec); v != nil {
				return dataset.FormatFloat(*v)
			}
			return ""
		},
	}
}

func timeCol[T any](name string, field func(*T) **time.Time) Column[T] {
	return Column[T]{
		Name: name,
		Kind: KindTime,
		set: func(rec *T, raw string) {
			if t, ok := dataset.ParseTime(raw); ok {
				*field(rec) = &t
				return
			}
			*field(rec) = nil
		},
		format: func(rec *T) string {
			if v := *field(rec); v != nil {
				return dataset.FormatTime(*v)
			}
			return ""
		},
	}
}

// derivedValueFloat is a non-nullable derived float column.
func derivedValueFloat[T any](name string, field func(*T) *float64) Column[T] {
	return Column[T]{
		Name:    name,
		Kind:    KindFloat,
		Derived: true,
		set: func(rec *T, raw string) {
			f, _ := dataset.ParseFloat(raw)
			*field(rec) = f
		},
		format: func(rec *T) string { return dataset.FormatFloat(*field(rec)) },
	}
}

func derivedBool[T any](name string, field func(*T) *bool) Column[T] {
	return Column[T]{
		Name:    name,
		Kind:    KindBool,
		Derived: true,
		set: func(rec *T, raw string) {
			b, err := strconv.ParseBool(strings.TrimSpace(raw))
			*field(rec) = err == nil && b
		},
		format: func(rec *T) string {
			if *field(rec) {
				return "True"
			}
			return "False"
		},
	}
}

func derived[T any](c Column[T]) Column[T] {
	c.Derived = true
	return c
}
