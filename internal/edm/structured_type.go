package edm

import (
	"sync"
	"sync/atomic"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/csdl"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/metamodel"
)

// structure: результат одной сборки типа; публикуется целиком и больше не меняется.
type structure struct {
	properties  *orderedMap[*Property]
	navigations *orderedMap[*NavigationProperty]
	paths       pathResolver
}

// structuredType: общая часть сущностей и complex-типов: списки свойств,
// навигаций, карты путей и мемоизированная сборка.
type structuredType struct {
	modelElement
	managed metamodel.ManagedType
	schema  *Schema

	mu        sync.Mutex
	published atomic.Pointer[structure]

	// finish: шаг конкретного типа (ключи, поток, etag, edm-item);
	// вызывается под mu до публикации, ошибка отменяет публикацию.
	finish func(*structure) error
}

func makeStructuredType(schema *Schema, managed metamodel.ManagedType) structuredType {
	return structuredType{
		modelElement: modelElement{
			internalName: managed.Name(),
			externalName: schema.names.TypeName(managed.Name()),
			ignore:       managed.Ignored(),
		},
		managed: managed,
		schema:  schema,
	}
}

// Name возвращает FQN персистентного типа.
func (t *structuredType) Name() string { return t.managed.Name() }

// lazyBuildEdmItem собирает тип один раз; повторные вызовы отдают ту же структуру.
// Частично собранный результат никогда не публикуется.
func (t *structuredType) lazyBuildEdmItem() (*structure, error) {
	if s := t.published.Load(); s != nil {
		return s, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if s := t.published.Load(); s != nil {
		return s, nil
	}

	s, err := t.build()
	if err != nil {
		t.schema.log.Errorw("build failed", "type", t.Name(), "error", err)
		return nil, err
	}
	t.published.Store(s)
	t.schema.log.Debugw("built structured type",
		"type", t.Name(),
		"properties", s.properties.len(),
		"navigations", s.navigations.len(),
		"paths", s.paths.resolved.len())
	return s, nil
}

func (t *structuredType) build() (*structure, error) {
	s := &structure{}
	if err := t.buildPropertyList(s); err != nil {
		return nil, err
	}
	if err := t.buildNavigationPropertyList(s); err != nil {
		return nil, err
	}
	if err := t.buildPathMaps(s); err != nil {
		return nil, err
	}
	// навигации делят пространство имён со свойствами, включая унаследованные
	for _, n := range s.navigations.values() {
		if s.paths.taken(n.ExternalName()) {
			return nil, modelError(KeyDuplicateProperty, t.Name(), n.internalName, n.ExternalName())
		}
	}
	if t.finish != nil {
		if err := t.finish(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (t *structuredType) buildPropertyList(s *structure) error {
	s.properties = newOrderedMap[*Property]()
	for _, attr := range t.managed.Attributes() {
		if attr.Kind == metamodel.Association {
			continue
		}
		p := newProperty(t, attr)
		if !s.properties.putIfAbsent(p.internalName, p) {
			return modelError(KeyDuplicateProperty, t.Name(), p.internalName)
		}
	}
	return nil
}

func (t *structuredType) buildNavigationPropertyList(s *structure) error {
	s.navigations = newOrderedMap[*NavigationProperty]()
	for _, attr := range t.managed.Attributes() {
		if attr.Kind != metamodel.Association {
			continue
		}
		if _, ok := s.properties.get(attr.Name); ok || !s.navigations.putIfAbsent(attr.Name, newNavigationProperty(t, attr)) {
			return modelError(KeyDuplicateProperty, t.Name(), attr.Name)
		}
	}
	return nil
}

// buildPathMaps: внешние имена (алиасы) уникальны в пределах типа вместе
// с листьями встроенного ключа и путями предка.
func (t *structuredType) buildPathMaps(s *structure) error {
	s.paths = newPathResolver()
	for _, p := range s.properties.values() {
		switch p.Kind() {
		case KindScalar, KindStream:
			if alias, ok := s.paths.addScalar(p); !ok {
				return modelError(KeyDuplicateProperty, t.Name(), p.internalName, alias)
			}
		case KindComplex, KindEmbeddedKey:
			ct, err := p.StructuredType()
			if err != nil {
				return err
			}
			nested, err := ct.lazyBuildEdmItem()
			if err != nil {
				key := KeyInvalidComplexType
				if p.Kind() == KindEmbeddedKey {
					key = KeyInvalidEmbeddedKey
				}
				return modelError(key, t.Name(), p.internalName, ct.Name()).withCause(err)
			}
			if alias, ok := s.paths.addComplex(t.schema.names, p, nested.paths); !ok {
				return modelError(KeyDuplicateProperty, t.Name(), p.internalName, alias)
			}
		}
	}
	base, err := t.baseType()
	if err != nil {
		return err
	}
	if base != nil {
		bs, err := base.lazyBuildEdmItem()
		if err != nil {
			return err
		}
		if alias, ok := s.paths.merge(bs.paths); !ok {
			own, _ := s.paths.path(alias)
			return modelError(KeyDuplicateProperty, t.Name(), own.elements[0].internalName, alias, base.Name())
		}
	}
	s.paths.index()
	return nil
}

// baseType: nil для complex-типов и сущностей без предка.
func (t *structuredType) baseType() (*EntityType, error) {
	super := t.managed.Supertype()
	if t.managed.Kind() != metamodel.KindEntity || super == "" {
		return nil, nil
	}
	base, ok := t.schema.entities[super]
	if !ok {
		return nil, modelError(KeyBaseTypeMissing, t.Name(), "", super)
	}
	return base, nil
}

// extractProperties: игнорируемые и потоковые свойства пропускаются, встроенный
// ключ разворачивается в свойства своего complex-типа. nil значит «ничего нет».
func (t *structuredType) extractProperties(s *structure) ([]*csdl.Property, error) {
	var out []*csdl.Property
	for _, p := range s.properties.values() {
		if p.Ignored() {
			continue
		}
		switch p.Kind() {
		case KindStream:
			continue
		case KindEmbeddedKey:
			ct, err := p.StructuredType()
			if err != nil {
				return nil, err
			}
			item, err := ct.EdmItem()
			if err != nil {
				return nil, err
			}
			for _, kp := range item.Properties {
				cp := *kp
				f := false
				cp.Nullable = &f
				out = append(out, &cp)
			}
		default:
			out = append(out, p.edmItem())
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (t *structuredType) extractNavigationProperties(s *structure) ([]*csdl.NavigationProperty, error) {
	var out []*csdl.NavigationProperty
	for _, n := range s.navigations.values() {
		if n.Ignored() {
			continue
		}
		item, err := n.edmItem()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Property ищет объявленное свойство по внутреннему имени, затем у предков.
// Игнорируемые свойства тоже находятся.
func (t *structuredType) Property(internalName string) (*Property, error) {
	s, err := t.lazyBuildEdmItem()
	if err != nil {
		return nil, err
	}
	if p, ok := s.properties.get(internalName); ok {
		return p, nil
	}
	base, err := t.baseType()
	if err != nil {
		return nil, err
	}
	if base != nil {
		return base.Property(internalName)
	}
	return nil, modelError(KeyPropertyNotFound, t.Name(), internalName)
}

// DeclaredProperties: объявленные свойства в порядке объявления (включая игнорируемые).
func (t *structuredType) DeclaredProperties() ([]*Property, error) {
	s, err := t.lazyBuildEdmItem()
	if err != nil {
		return nil, err
	}
	return s.properties.values(), nil
}

func (t *structuredType) NavigationProperties() ([]*NavigationProperty, error) {
	s, err := t.lazyBuildEdmItem()
	if err != nil {
		return nil, err
	}
	var out []*NavigationProperty
	for _, n := range s.navigations.values() {
		if !n.Ignored() {
			out = append(out, n)
		}
	}
	return out, nil
}

// Path ищет неигнорируемый путь по алиасу: сначала листья, затем промежуточные.
func (t *structuredType) Path(alias string) (*Path, error) {
	s, err := t.lazyBuildEdmItem()
	if err != nil {
		return nil, err
	}
	p, ok := s.paths.path(alias)
	if !ok || p.Ignored() {
		return nil, modelError(KeyPathNotFound, t.Name(), "", alias)
	}
	return p, nil
}

// PathByDBField ищет путь по имени колонки в обход признака ignore.
func (t *structuredType) PathByDBField(dbField string) (*Path, error) {
	s, err := t.lazyBuildEdmItem()
	if err != nil {
		return nil, err
	}
	if p, ok := s.paths.byDBField[dbField]; ok {
		return p, nil
	}
	return nil, modelError(KeyPathNotFound, t.Name(), "", dbField)
}

// PathList: все неигнорируемые пути до листьев, включая унаследованные.
func (t *structuredType) PathList() ([]*Path, error) {
	s, err := t.lazyBuildEdmItem()
	if err != nil {
		return nil, err
	}
	var out []*Path
	for _, p := range s.paths.resolved.values() {
		if !p.Ignored() {
			out = append(out, p)
		}
	}
	return out, nil
}

// ColumnPaths: пути до листьев, по одному на колонку, включая игнорируемые:
// скрытый от схемы атрибут всё равно хранится.
func (t *structuredType) ColumnPaths() ([]*Path, error) {
	s, err := t.lazyBuildEdmItem()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []*Path
	for _, p := range s.paths.resolved.values() {
		if seen[p.dbField] {
			continue
		}
		seen[p.dbField] = true
		out = append(out, p)
	}
	return out, nil
}

// IntermediatePaths: промежуточные пути (complex-атрибуты и их вложения).
func (t *structuredType) IntermediatePaths() ([]*Path, error) {
	s, err := t.lazyBuildEdmItem()
	if err != nil {
		return nil, err
	}
	return s.paths.intermediate.values(), nil
}
