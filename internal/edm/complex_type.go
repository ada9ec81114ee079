package edm

import (
	"github.com/DenJur/olingo-jpa-processor-v4/internal/csdl"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/metamodel"
)

// ComplexType: структурный тип без собственной идентичности
// (embeddable, в т.ч. держатель составного ключа).
type ComplexType struct {
	structuredType
	item       *csdl.ComplexType
	attributes []*Property
}

func newComplexType(schema *Schema, managed metamodel.ManagedType) *ComplexType {
	ct := &ComplexType{structuredType: makeStructuredType(schema, managed)}
	ct.finish = ct.finishBuild
	return ct
}

func (ct *ComplexType) finishBuild(s *structure) error {
	props, err := ct.extractProperties(s)
	if err != nil {
		return err
	}
	navs, err := ct.extractNavigationProperties(s)
	if err != nil {
		return err
	}
	var attrs []*Property
	for _, p := range s.properties.values() {
		if !p.Ignored() {
			attrs = append(attrs, p)
		}
	}
	ct.attributes = attrs
	ct.item = &csdl.ComplexType{
		Name:                 ct.ExternalName(),
		Properties:           props,
		NavigationProperties: navs,
	}
	return nil
}

// Attributes: неигнорируемые атрибуты в порядке объявления.
func (ct *ComplexType) Attributes() ([]*Property, error) {
	if _, err := ct.lazyBuildEdmItem(); err != nil {
		return nil, err
	}
	return append([]*Property(nil), ct.attributes...), nil
}

func (ct *ComplexType) EdmItem() (*csdl.ComplexType, error) {
	if _, err := ct.lazyBuildEdmItem(); err != nil {
		return nil, err
	}
	return ct.item, nil
}
