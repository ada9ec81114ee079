// Package reflectmeta реализует провайдер метамодели поверх Go-структур с тегами `jpa:"..."`.
//
// Теги полей (через запятую, значения через "="):
//
//	key, etag, stream, searchable, ignore, required
//	column=<имя>, name=<внутреннее имя>, type=<Edm-тип>
//	nullable=<bool>, maxlength=<n>, precision=<n>, scale=<n>
//	mime=<статический MIME>, content_type=<поле с MIME>, mapped_by=<партнёр>
//
// Поле `_ struct{}` с тегом задаёт опции типа: table=<имя>, abstract, ignore.
// Анонимно встроенная зарегистрированная сущность становится базовым типом.
package reflectmeta

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/metamodel"
)

const tagName = "jpa"

var timeType = reflect.TypeOf(time.Time{})

var primitives = map[reflect.Kind]string{
	reflect.String:  "Edm.String",
	reflect.Bool:    "Edm.Boolean",
	reflect.Int:     "Edm.Int64",
	reflect.Int64:   "Edm.Int64",
	reflect.Int32:   "Edm.Int32",
	reflect.Int16:   "Edm.Int16",
	reflect.Int8:    "Edm.SByte",
	reflect.Uint8:   "Edm.Byte",
	reflect.Uint16:  "Edm.Int32",
	reflect.Uint32:  "Edm.Int64",
	reflect.Float32: "Edm.Single",
	reflect.Float64: "Edm.Double",
}

// Registry собирает Go-типы модуля; анализ полей откладывается до Provider,
// чтобы ссылки между типами разрешались независимо от порядка регистрации.
type Registry struct {
	module string
	kinds  map[reflect.Type]metamodel.TypeKind
	order  []reflect.Type
}

func New(module string) *Registry {
	return &Registry{module: module, kinds: make(map[reflect.Type]metamodel.TypeKind)}
}

// Entity регистрирует сущности (значения или указатели на структуры).
func (r *Registry) Entity(values ...any) error {
	return r.register(metamodel.KindEntity, values)
}

// Embeddable регистрирует complex-типы, в т.ч. составные ключи.
func (r *Registry) Embeddable(values ...any) error {
	return r.register(metamodel.KindEmbeddable, values)
}

func (r *Registry) register(kind metamodel.TypeKind, values []any) error {
	for _, v := range values {
		t := reflect.TypeOf(v)
		if t == nil {
			return fmt.Errorf("reflectmeta: nil value")
		}
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return fmt.Errorf("reflectmeta: %s must be a struct, got %s", t, t.Kind())
		}
		if _, dup := r.kinds[t]; dup {
			return fmt.Errorf("reflectmeta: %s registered twice", t)
		}
		r.kinds[t] = kind
		r.order = append(r.order, t)
	}
	return nil
}

func (r *Registry) fqn(t reflect.Type) string {
	if r.module == "" {
		return t.Name()
	}
	return r.module + "." + t.Name()
}

// Provider анализирует все зарегистрированные структуры.
func (r *Registry) Provider() (metamodel.Static, error) {
	sorted := append([]reflect.Type(nil), r.order...)
	sort.SliceStable(sorted, func(i, j int) bool { return r.fqn(sorted[i]) < r.fqn(sorted[j]) })

	out := make(metamodel.Static, 0, len(sorted))
	for _, t := range sorted {
		mt, err := r.analyze(t)
		if err != nil {
			return nil, fmt.Errorf("reflectmeta: %s: %w", t.Name(), err)
		}
		out = append(out, mt)
	}
	return out, nil
}

func (r *Registry) analyze(t reflect.Type) (*metamodel.Type, error) {
	mt := &metamodel.Type{FQN: r.fqn(t), TypeKind: r.kinds[t]}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get(tagName)

		if field.Name == "_" {
			if err := applyTypeOptions(mt, tag); err != nil {
				return nil, err
			}
			continue
		}
		if field.Anonymous {
			base := field.Type
			if base.Kind() == reflect.Ptr {
				base = base.Elem()
			}
			if kind, ok := r.kinds[base]; !ok || kind != metamodel.KindEntity || mt.TypeKind != metamodel.KindEntity {
				return nil, fmt.Errorf("embedded %s is not a registered base entity", base)
			}
			if mt.Extends != "" {
				return nil, fmt.Errorf("more than one base type")
			}
			mt.Extends = r.fqn(base)
			continue
		}
		if !field.IsExported() || tag == "-" {
			continue
		}

		a, err := r.attribute(field, parseTag(tag))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		mt.Attrs = append(mt.Attrs, a)
	}
	return mt, nil
}

func applyTypeOptions(mt *metamodel.Type, tag string) error {
	for k, v := range parseTag(tag) {
		switch k {
		case "table":
			mt.TableName = v
		case "abstract":
			mt.IsAbstract = true
		case "ignore":
			mt.Ignore = true
		default:
			return fmt.Errorf("unknown type option %q", k)
		}
	}
	return nil
}

// parseTag: "key,column=x" → {key: "", column: x}
func parseTag(tag string) map[string]string {
	opts := make(map[string]string)
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		opts[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return opts
}

func (r *Registry) attribute(field reflect.StructField, opts map[string]string) (metamodel.Attribute, error) {
	_, key := opts["key"]
	_, etag := opts["etag"]
	_, stream := opts["stream"]
	_, searchable := opts["searchable"]
	_, ignore := opts["ignore"]

	a := metamodel.Attribute{
		Name:                field.Name,
		Column:              opts["column"],
		Key:                 key,
		Etag:                etag,
		Stream:              stream,
		Searchable:          searchable,
		Ignore:              ignore,
		ContentType:         opts["mime"],
		ContentTypeProperty: opts["content_type"],
		MappedBy:            opts["mapped_by"],
	}
	if n := opts["name"]; n != "" {
		a.Name = n
	}

	ft := field.Type
	if ft.Kind() == reflect.Ptr {
		ft = ft.Elem()
		yes := true
		a.Nullable = &yes
	}
	if ft.Kind() == reflect.Slice && ft.Elem().Kind() != reflect.Uint8 {
		a.Collection = true
		ft = ft.Elem()
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
	}

	switch kind, registered := r.kinds[ft]; {
	case registered && kind == metamodel.KindEntity:
		a.Kind = metamodel.Association
		a.Type = r.fqn(ft)
	case registered:
		a.Kind = metamodel.Embedded
		if key {
			a.Kind = metamodel.EmbeddedID
		}
		a.Type = r.fqn(ft)
	default:
		edm, err := primitiveOf(ft)
		if err != nil {
			return a, err
		}
		a.Kind = metamodel.Basic
		a.Type = edm
	}
	if t := opts["type"]; t != "" && a.Kind == metamodel.Basic {
		a.Type = t
	}
	if a.Stream && (a.Collection || a.Kind != metamodel.Basic) {
		return a, fmt.Errorf("stream must be a single basic value")
	}

	if v, ok := opts["nullable"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return a, fmt.Errorf("nullable=%q: %w", v, err)
		}
		a.Nullable = &b
	}
	if _, ok := opts["required"]; ok {
		no := false
		a.Nullable = &no
	}
	for _, facet := range []struct {
		name string
		dst  *int
	}{
		{"maxlength", &a.MaxLength},
		{"precision", &a.Precision},
		{"scale", &a.Scale},
	} {
		v, ok := opts[facet.name]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return a, fmt.Errorf("%s=%q: %w", facet.name, v, err)
		}
		*facet.dst = n
	}
	return a, nil
}

func primitiveOf(t reflect.Type) (string, error) {
	switch {
	case t == timeType:
		return "Edm.DateTimeOffset", nil
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		return "Edm.Binary", nil
	case t.Kind() == reflect.Array && t.Len() == 16 && t.Elem().Kind() == reflect.Uint8:
		return "Edm.Guid", nil
	}
	if edm, ok := primitives[t.Kind()]; ok {
		return edm, nil
	}
	return "", fmt.Errorf("unsupported type %s", t)
}
