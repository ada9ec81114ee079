package dsl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/metamodel"
)

// примитивы DSL → Edm
var primitives = map[string]string{
	"string":   "Edm.String",
	"text":     "Edm.String",
	"enum":     "Edm.String",
	"int":      "Edm.Int32",
	"long":     "Edm.Int64",
	"bigint":   "Edm.Int64",
	"short":    "Edm.Int16",
	"float":    "Edm.Double",
	"double":   "Edm.Double",
	"decimal":  "Edm.Decimal",
	"money":    "Edm.Decimal",
	"bool":     "Edm.Boolean",
	"date":     "Edm.Date",
	"datetime": "Edm.DateTimeOffset",
	"time":     "Edm.TimeOfDay",
	"uuid":     "Edm.Guid",
	"binary":   "Edm.Binary",
	"stream":   "Edm.Binary",
}

// Model: загруженные DSL-типы как провайдер метамодели.
type Model struct {
	types []metamodel.ManagedType
}

func (m *Model) Types() []metamodel.ManagedType {
	return append([]metamodel.ManagedType(nil), m.types...)
}

// LoadModel читает все .dsl из root и переводит их в метамодель (в порядке FQN).
func LoadModel(root string) (*Model, error) {
	ents, err := LoadAllEntities(root)
	if err != nil {
		return nil, err
	}
	return NewModel(ents)
}

func NewModel(ents map[string]*Entity) (*Model, error) {
	fqns := make([]string, 0, len(ents))
	for fqn := range ents {
		fqns = append(fqns, fqn)
	}
	sort.Strings(fqns)

	m := &Model{}
	for _, fqn := range fqns {
		t, err := ToManagedType(ents[fqn])
		if err != nil {
			return nil, err
		}
		m.types = append(m.types, t)
	}
	return m, nil
}

// ToManagedType переводит один DSL-тип; ссылки без точки считаются
// ссылками внутри модуля типа.
func ToManagedType(e *Entity) (*metamodel.Type, error) {
	t := &metamodel.Type{
		FQN:        e.FQN(),
		TypeKind:   metamodel.KindEntity,
		IsAbstract: e.Abstract,
		TableName:  e.Table,
		Ignore:     e.Ignore,
	}
	if e.Kind == "embeddable" {
		t.TypeKind = metamodel.KindEmbeddable
	}
	if e.Extends != "" {
		t.Extends = qualify(e.Module, e.Extends)
	}
	for _, f := range e.Fields {
		a, err := toAttribute(e.Module, f)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.FQN, f.Name, err)
		}
		t.Attrs = append(t.Attrs, a)
	}
	return t, nil
}

func qualify(module, name string) string {
	if strings.Contains(name, ".") || module == "" {
		return name
	}
	return module + "." + name
}

func toAttribute(module string, f Field) (metamodel.Attribute, error) {
	a := metamodel.Attribute{
		Name:                f.Name,
		Column:              f.Options["column"],
		Key:                 f.Flag("key"),
		Etag:                f.Flag("etag"),
		Searchable:          f.Flag("searchable"),
		Ignore:              f.Flag("ignore"),
		ContentType:         f.Options["mime"],
		ContentTypeProperty: f.Options["content_type"],
		MappedBy:            f.Options["mapped_by"],
	}

	typ, elem := f.Type, f.Type
	if typ == "array" {
		a.Collection = true
		elem = f.ElemType
	}
	switch elem {
	case "ref":
		a.Kind = metamodel.Association
		a.Type = qualify(module, f.RefTarget)
	case "embedded":
		a.Kind = metamodel.Embedded
		a.Type = qualify(module, f.RefTarget)
		if a.Key {
			a.Kind = metamodel.EmbeddedID
		}
	default:
		edm, ok := primitives[elem]
		if !ok {
			return a, fmt.Errorf("unknown type %q", elem)
		}
		a.Kind = metamodel.Basic
		a.Type = edm
		a.Stream = elem == "stream" || f.Flag("stream")
	}
	if a.Stream && a.Collection {
		return a, fmt.Errorf("stream cannot be a collection")
	}

	if v, ok := f.Options["nullable"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return a, fmt.Errorf("nullable=%q: %w", v, err)
		}
		a.Nullable = &b
	}
	if f.Flag("required") {
		b := false
		a.Nullable = &b
	}
	for opt, dst := range map[string]*int{
		"maxlength": &a.MaxLength,
		"max":       &a.MaxLength,
		"precision": &a.Precision,
		"scale":     &a.Scale,
	} {
		v, ok := f.Options[opt]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return a, fmt.Errorf("%s=%q: %w", opt, v, err)
		}
		*dst = n
	}
	return a, nil
}
