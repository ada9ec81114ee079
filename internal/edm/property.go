package edm

import (
	"github.com/DenJur/olingo-jpa-processor-v4/internal/csdl"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/metamodel"
)

// modelElement: общая часть любого артефакта схемы.
type modelElement struct {
	internalName string
	externalName string
	ignore       bool
}

func (e *modelElement) InternalName() string { return e.internalName }
func (e *modelElement) ExternalName() string { return e.externalName }
func (e *modelElement) Ignored() bool { return e.ignore }

// PropertyKind: закрытый набор видов свойств.
type PropertyKind int

const (
	KindScalar PropertyKind = iota
	KindComplex
	KindEmbeddedKey
	KindStream
)

func (k PropertyKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindComplex:
		return "complex"
	case KindEmbeddedKey:
		return "embedded_key"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

const defaultPrimitive = "Edm.String"

// Property: одно структурное свойство типа.
type Property struct {
	modelElement
	kind  PropertyKind
	attr  metamodel.Attribute
	owner *structuredType
}

func newProperty(owner *structuredType, attr metamodel.Attribute) *Property {
	p := &Property{
		modelElement: modelElement{
			internalName: attr.Name,
			externalName: owner.schema.names.PropertyName(attr.Name),
			ignore:       attr.Ignore,
		},
		attr:  attr,
		owner: owner,
	}
	switch {
	case attr.Kind == metamodel.EmbeddedID, attr.Kind == metamodel.Embedded && attr.Key:
		p.kind = KindEmbeddedKey
	case attr.Kind == metamodel.Embedded:
		p.kind = KindComplex
	case attr.Stream:
		p.kind = KindStream
	default:
		p.kind = KindScalar
	}
	return p
}

func (p *Property) Kind() PropertyKind { return p.kind }

// Attribute: исходное описание атрибута (фасеты, nullable, колонка).
func (p *Property) Attribute() metamodel.Attribute { return p.attr }

func (p *Property) DBFieldName() string { return p.attr.DBFieldName() }

func (p *Property) IsKey() bool { return p.attr.Key || p.kind == KindEmbeddedKey }

func (p *Property) IsComplex() bool { return p.kind == KindComplex || p.kind == KindEmbeddedKey }

func (p *Property) IsStream() bool { return p.kind == KindStream }

func (p *Property) IsEtag() bool { return p.attr.Etag }

func (p *Property) IsSearchable() bool { return p.attr.Searchable }

func (p *Property) IsCollection() bool { return p.attr.Collection }

// ContentType: статический MIME потока (только для потоков).
func (p *Property) ContentType() string { return p.attr.ContentType }

// ContentTypeProperty: внутреннее имя поля, несущего MIME потока.
func (p *Property) ContentTypeProperty() string { return p.attr.ContentTypeProperty }

// EdmType: имя типа, как оно попадает в схему.
func (p *Property) EdmType() string {
	switch p.kind {
	case KindStream:
		return "Edm.Stream"
	case KindComplex, KindEmbeddedKey:
		return p.owner.schema.names.Qualified(p.owner.schema.names.TypeName(p.attr.Type))
	default:
		if p.attr.Type == "" {
			return defaultPrimitive
		}
		return p.attr.Type
	}
}

// StructuredType разрешает complex-тип атрибута через схему.
func (p *Property) StructuredType() (*ComplexType, error) {
	if !p.IsComplex() {
		return nil, modelError(KeyInvalidEmbeddedKey, p.owner.Name(), p.internalName, "not a complex attribute")
	}
	ct, ok := p.owner.schema.complexes[p.attr.Type]
	if !ok {
		if _, isEntity := p.owner.schema.entities[p.attr.Type]; isEntity && p.kind == KindEmbeddedKey {
			return nil, modelError(KeyInvalidEmbeddedKey, p.owner.Name(), p.internalName, p.attr.Type)
		}
		return nil, modelError(KeyComplexTypeMissing, p.owner.Name(), p.internalName, p.attr.Type)
	}
	return ct, nil
}

func (p *Property) edmItem() *csdl.Property {
	item := &csdl.Property{
		Name:      p.externalName,
		Type:      p.EdmType(),
		Nullable:  p.attr.Nullable,
		MaxLength: p.attr.MaxLength,
		Precision: p.attr.Precision,
		Scale:     p.attr.Scale,
	}
	if p.IsKey() {
		f := false
		item.Nullable = &f
	}
	if p.attr.Collection {
		item.Type = csdl.CollectionOf(item.Type)
	}
	return item
}

// NavigationProperty: ссылка на другую сущность.
type NavigationProperty struct {
	modelElement
	attr  metamodel.Attribute
	owner *structuredType
}

func newNavigationProperty(owner *structuredType, attr metamodel.Attribute) *NavigationProperty {
	return &NavigationProperty{
		modelElement: modelElement{
			internalName: attr.Name,
			externalName: owner.schema.names.NavigationName(attr.Name),
			ignore:       attr.Ignore,
		},
		attr:  attr,
		owner: owner,
	}
}

func (n *NavigationProperty) IsCollection() bool { return n.attr.Collection }

// Required: навигация объявлена как обязательная (nullable=false).
func (n *NavigationProperty) Required() bool { return n.attr.Nullable != nil && !*n.attr.Nullable }

// JoinColumn: колонка внешнего ключа на стороне владельца ("" если не задана).
func (n *NavigationProperty) JoinColumn() string { return n.attr.Column }

func (n *NavigationProperty) TargetType() (*EntityType, error) {
	et, ok := n.owner.schema.entities[n.attr.Type]
	if !ok {
		return nil, modelError(KeyNavigationTargetMissing, n.owner.Name(), n.internalName, n.attr.Type)
	}
	return et, nil
}

func (n *NavigationProperty) edmItem() (*csdl.NavigationProperty, error) {
	target, err := n.TargetType()
	if err != nil {
		return nil, err
	}
	names := n.owner.schema.names
	item := &csdl.NavigationProperty{
		Name: n.externalName,
		Type: names.Qualified(target.ExternalName()),
	}
	if n.attr.Collection {
		item.Type = csdl.CollectionOf(item.Type)
	} else {
		item.Nullable = n.attr.Nullable
	}
	if n.attr.MappedBy != "" {
		item.Partner = names.NavigationName(n.attr.MappedBy)
	}
	return item, nil
}
