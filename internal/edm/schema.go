package edm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/csdl"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/metamodel"
)

// Schema: реестр всех структурных типов одной модели. Типы ссылаются
// друг на друга только по имени через этот реестр.
type Schema struct {
	namespace string
	names     NameBuilder
	log       *zap.SugaredLogger

	entities   map[string]*EntityType  // FQN → тип
	complexes  map[string]*ComplexType // FQN → тип
	byExternal map[string]string       // внешнее имя → FQN

	// complex-типы, на которые ссылаются только как на встроенный ключ
	keyOnly map[string]bool

	mu   sync.Mutex
	item atomic.Pointer[csdl.Schema]
}

// NewSchema регистрирует все типы провайдера и проверяет граф моделей
// (дубли, циклы наследования и вложения) до любых перекрёстных поисков.
func NewSchema(namespace string, provider metamodel.Provider, logger *zap.SugaredLogger) (*Schema, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Schema{
		namespace:  namespace,
		names:      NameBuilder{Namespace: namespace},
		log:        logger,
		entities:   make(map[string]*EntityType),
		complexes:  make(map[string]*ComplexType),
		byExternal: make(map[string]string),
		keyOnly:    make(map[string]bool),
	}

	types := provider.Types()
	for _, mt := range types {
		fqn := mt.Name()
		if _, dup := s.lookup(fqn); dup {
			return nil, modelError(KeyDuplicateType, fqn, "")
		}
		ext := s.names.TypeName(fqn)
		if other, clash := s.byExternal[ext]; clash {
			return nil, modelError(KeyDuplicateType, fqn, "", other)
		}
		s.byExternal[ext] = fqn
		switch mt.Kind() {
		case metamodel.KindEntity:
			s.entities[fqn] = newEntityType(s, mt)
		case metamodel.KindEmbeddable:
			s.complexes[fqn] = newComplexType(s, mt)
		default:
			return nil, fmt.Errorf("type %s: unsupported kind %v", fqn, mt.Kind())
		}
		s.log.Debugw("registered type", "type", fqn, "kind", mt.Kind().String(), "attributes", len(mt.Attributes()))
	}

	if err := s.checkInheritance(); err != nil {
		return nil, err
	}
	if err := s.checkEmbedding(); err != nil {
		return nil, err
	}
	s.markKeyOnly(types)
	return s, nil
}

func (s *Schema) lookup(fqn string) (*structuredType, bool) {
	if et, ok := s.entities[fqn]; ok {
		return &et.structuredType, true
	}
	if ct, ok := s.complexes[fqn]; ok {
		return &ct.structuredType, true
	}
	return nil, false
}

// checkInheritance: предок должен быть зарегистрирован, цепочка не замыкается.
func (s *Schema) checkInheritance() error {
	for _, fqn := range sortedKeys(s.entities) {
		seen := map[string]bool{fqn: true}
		cur := s.entities[fqn].managed.Supertype()
		for cur != "" {
			if seen[cur] {
				return modelError(KeyInheritanceCycle, fqn, "", cur)
			}
			seen[cur] = true
			next, ok := s.entities[cur]
			if !ok {
				if _, isComplex := s.complexes[cur]; !isComplex {
					return modelError(KeyBaseTypeMissing, fqn, "", cur)
				}
				// предок-embeddable ловится при сборке
				break
			}
			cur = next.managed.Supertype()
		}
	}
	return nil
}

// checkEmbedding ищет циклы по вложенным complex-атрибутам (DFS с тремя цветами).
// Отсутствующие complex-типы здесь пропускаются: это ошибка сборки конкретного типа.
func (s *Schema) checkEmbedding() error {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int)
	var visit func(fqn string, t *structuredType) error
	visit = func(fqn string, t *structuredType) error {
		color[fqn] = grey
		for _, a := range t.managed.Attributes() {
			if a.Kind != metamodel.Embedded && a.Kind != metamodel.EmbeddedID {
				continue
			}
			ct, ok := s.complexes[a.Type]
			if !ok {
				continue
			}
			switch color[a.Type] {
			case grey:
				return modelError(KeyEmbeddingCycle, fqn, a.Name, a.Type)
			case white:
				if err := visit(a.Type, &ct.structuredType); err != nil {
					return err
				}
			}
		}
		color[fqn] = black
		return nil
	}
	for _, fqn := range sortedKeys(s.complexes) {
		if color[fqn] == white {
			if err := visit(fqn, &s.complexes[fqn].structuredType); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Schema) markKeyOnly(types []metamodel.ManagedType) {
	asKey := make(map[string]bool)
	asValue := make(map[string]bool)
	for _, mt := range types {
		for _, a := range mt.Attributes() {
			switch {
			case a.Kind == metamodel.EmbeddedID, a.Kind == metamodel.Embedded && a.Key:
				asKey[a.Type] = true
			case a.Kind == metamodel.Embedded:
				asValue[a.Type] = true
			}
		}
	}
	for fqn := range asKey {
		if !asValue[fqn] {
			s.keyOnly[fqn] = true
		}
	}
}

func (s *Schema) Namespace() string { return s.namespace }

// Names: правила внешних имён этой схемы.
func (s *Schema) Names() NameBuilder { return s.names }

// resolve принимает FQN или внешнее имя.
func (s *Schema) resolve(name string) string {
	if _, ok := s.lookup(name); ok {
		return name
	}
	if fqn, ok := s.byExternal[name]; ok {
		return fqn
	}
	return name
}

func (s *Schema) EntityType(name string) (*EntityType, error) {
	if et, ok := s.entities[s.resolve(name)]; ok {
		return et, nil
	}
	return nil, modelError(KeyTypeNotFound, name, "")
}

func (s *Schema) ComplexType(name string) (*ComplexType, error) {
	if ct, ok := s.complexes[s.resolve(name)]; ok {
		return ct, nil
	}
	return nil, modelError(KeyTypeNotFound, name, "")
}

// StructuredType: общий поиск; Property/Path-операции доступны у обоих видов.
func (s *Schema) StructuredType(name string) (StructuredType, error) {
	fqn := s.resolve(name)
	if et, ok := s.entities[fqn]; ok {
		return et, nil
	}
	if ct, ok := s.complexes[fqn]; ok {
		return ct, nil
	}
	return nil, modelError(KeyTypeNotFound, name, "")
}

// EntityTypes: все сущности, отсортированные по внешнему имени.
func (s *Schema) EntityTypes() []*EntityType {
	out := make([]*EntityType, 0, len(s.entities))
	for _, et := range s.entities {
		out = append(out, et)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalName() < out[j].ExternalName() })
	return out
}

func (s *Schema) ComplexTypes() []*ComplexType {
	out := make([]*ComplexType, 0, len(s.complexes))
	for _, ct := range s.complexes {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalName() < out[j].ExternalName() })
	return out
}

// Finalize собирает все типы заранее, чтобы дальше читатели работали
// только с опубликованными структурами. Первая ошибка отменяет остальное.
func (s *Schema) Finalize(ctx context.Context, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	build := func(name string, fn func() error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(); err != nil {
				return fmt.Errorf("finalize %s: %w", name, err)
			}
			return nil
		})
	}
	for _, ct := range s.ComplexTypes() {
		build(ct.Name(), func() error { _, err := ct.EdmItem(); return err })
	}
	for _, et := range s.EntityTypes() {
		build(et.Name(), func() error { _, err := et.EdmItem(); return err })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if _, err := s.EdmItem(); err != nil {
		return err
	}
	s.log.Infow("schema finalized",
		"namespace", s.namespace,
		"entities", len(s.entities),
		"complexTypes", len(s.complexes))
	return nil
}

// EdmItem: итоговый дескриптор схемы; собирается один раз, ошибка не кешируется.
func (s *Schema) EdmItem() (*csdl.Schema, error) {
	if item := s.item.Load(); item != nil {
		return item, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if item := s.item.Load(); item != nil {
		return item, nil
	}

	item := &csdl.Schema{Namespace: s.namespace}
	container := &csdl.EntityContainer{Name: s.namespace + "Container"}
	for _, et := range s.EntityTypes() {
		if et.Ignored() {
			continue
		}
		ei, err := et.EdmItem()
		if err != nil {
			return nil, err
		}
		item.EntityTypes = append(item.EntityTypes, ei)
		if !et.Abstract() {
			container.EntitySets = append(container.EntitySets, &csdl.EntitySet{
				Name:       et.EntitySetName(),
				EntityType: s.names.Qualified(et.ExternalName()),
			})
		}
	}
	for _, ct := range s.ComplexTypes() {
		if ct.Ignored() || s.keyOnly[ct.Name()] {
			continue
		}
		ci, err := ct.EdmItem()
		if err != nil {
			return nil, err
		}
		item.ComplexTypes = append(item.ComplexTypes, ci)
	}
	if len(container.EntitySets) > 0 {
		item.EntityContainer = container
	}
	s.item.Store(item)
	return item, nil
}

// StructuredType: то, что общее у сущностей и complex-типов.
type StructuredType interface {
	Name() string
	ExternalName() string
	Ignored() bool
	Property(internalName string) (*Property, error)
	DeclaredProperties() ([]*Property, error)
	NavigationProperties() ([]*NavigationProperty, error)
	Path(alias string) (*Path, error)
	PathByDBField(dbField string) (*Path, error)
	PathList() ([]*Path, error)
	ColumnPaths() ([]*Path, error)
	IntermediatePaths() ([]*Path, error)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
