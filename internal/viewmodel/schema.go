package viewmodel

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/stellarfs-api/internal/models"
)

// FieldKind determines how a field is compared and searched.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindTime
	KindList
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Field exposes one attribute of a record type to the engine.
type Field[T any] struct {
	Name string
	Kind FieldKind

	str  func(T) string
	num  func(T) float64
	i64  func(T) int64
	at   func(T) time.Time
	list func(T) []string
}

// StringField declares a text attribute.
func StringField[T any](name string, fn func(T) string) Field[T] {
	return Field[T]{Name: name, Kind: KindString, str: fn}
}

// NumberField declares a numeric attribute.
func NumberField[T any](name string, fn func(T) float64) Field[T] {
	return Field[T]{Name: name, Kind: KindNumber, num: fn}
}

// IntField declares an integer attribute. Counters and byte sizes use it so
// sums and comparisons stay exact beyond 2^53.
func IntField[T any](name string, fn func(T) int64) Field[T] {
	return Field[T]{
		Name: name,
		Kind: KindNumber,
		num:  func(r T) float64 { return float64(fn(r)) },
		i64:  fn,
	}
}

// TimeField declares a timestamp attribute.
func TimeField[T any](name string, fn func(T) time.Time) Field[T] {
	return Field[T]{Name: name, Kind: KindTime, at: fn}
}

// ListField declares a multi-valued text attribute such as tags.
func ListField[T any](name string, fn func(T) []string) Field[T] {
	return Field[T]{Name: name, Kind: KindList, list: fn}
}

// Text renders the field value of r as a display string.
func (f Field[T]) Text(r T) string {
	switch f.Kind {
	case KindString:
		return f.str(r)
	case KindNumber:
		if f.i64 != nil {
			return strconv.FormatInt(f.i64(r), 10)
		}
		return strconv.FormatFloat(f.num(r), 'f', -1, 64)
	case KindTime:
		t := f.at(r)
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	case KindList:
		return strings.Join(f.list(r), ", ")
	default:
		return ""
	}
}

func (f Field[T]) containsFold(r T, needle string) bool {
	switch f.Kind {
	case KindString:
		return strings.Contains(strings.ToLower(f.str(r)), needle)
	case KindList:
		for _, v := range f.list(r) {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
	}
	return false
}

func (f Field[T]) equals(r T, value string) bool {
	switch f.Kind {
	case KindString:
		return f.str(r) == value
	case KindList:
		for _, v := range f.list(r) {
			if v == value {
				return true
			}
		}
	}
	return false
}

func (f Field[T]) compare(a, b T) int {
	switch f.Kind {
	case KindString:
		return strings.Compare(strings.ToLower(f.str(a)), strings.ToLower(f.str(b)))
	case KindNumber:
		if f.i64 != nil {
			return cmp.Compare(f.i64(a), f.i64(b))
		}
		return cmp.Compare(f.num(a), f.num(b))
	case KindTime:
		return f.at(a).Compare(f.at(b))
	default:
		return 0
	}
}

// Schema binds a record type to the roles the engine needs: which fields are
// searched, which one classifies, sizes, dates, owns and tags a record.
type Schema[T any] struct {
	Kind       models.ResourceKind
	Fields     []Field[T]
	Searchable []string
	TypeField  string
	TimeField  string
	SizeField  string
	OwnerField string
	TagsField  string
	Tabs       []models.Tab
}

func (s Schema[T]) index() (map[string]Field[T], error) {
	fields := make(map[string]Field[T], len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%s schema: field without name", s.Kind)
		}
		if _, dup := fields[f.Name]; dup {
			return nil, fmt.Errorf("%s schema: duplicate field %q", s.Kind, f.Name)
		}
		fields[f.Name] = f
	}

	check := func(role, name string, required bool, kinds ...FieldKind) error {
		if name == "" {
			if required {
				return fmt.Errorf("%s schema: %s field required", s.Kind, role)
			}
			return nil
		}
		f, ok := fields[name]
		if !ok {
			return fmt.Errorf("%s schema: %s field %q not declared", s.Kind, role, name)
		}
		for _, k := range kinds {
			if f.Kind == k {
				return nil
			}
		}
		return fmt.Errorf("%s schema: %s field %q has kind %s", s.Kind, role, name, f.Kind)
	}

	if err := check("type", s.TypeField, true, KindString); err != nil {
		return nil, err
	}
	if err := check("time", s.TimeField, true, KindTime); err != nil {
		return nil, err
	}
	if err := check("size", s.SizeField, false, KindNumber); err != nil {
		return nil, err
	}
	if s.SizeField != "" && fields[s.SizeField].i64 == nil {
		return nil, fmt.Errorf("%s schema: size field %q must be declared with IntField", s.Kind, s.SizeField)
	}
	if err := check("owner", s.OwnerField, false, KindString); err != nil {
		return nil, err
	}
	if err := check("tags", s.TagsField, false, KindList); err != nil {
		return nil, err
	}
	for _, name := range s.Searchable {
		if err := check("searchable", name, true, KindString, KindList); err != nil {
			return nil, err
		}
	}
	for _, tab := range s.Tabs {
		switch tab {
		case models.TabAll, models.TabRecent:
		case models.TabMine:
			if s.OwnerField == "" {
				return nil, fmt.Errorf("%s schema: tab %q needs an owner field", s.Kind, tab)
			}
		default:
			return nil, fmt.Errorf("%s schema: unknown tab %q", s.Kind, tab)
		}
	}
	return fields, nil
}
