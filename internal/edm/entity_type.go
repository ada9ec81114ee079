package edm

import (
	"strings"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/csdl"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/metamodel"
)

// EntityType: адресуемый тип верхнего уровня: ключ, поток, etag, таблица, наследование.
type EntityType struct {
	structuredType

	// заполняются в finishBuild до публикации структуры
	item    *csdl.EntityType
	hasEtag bool
	stream  *Property
}

func newEntityType(schema *Schema, managed metamodel.ManagedType) *EntityType {
	et := &EntityType{structuredType: makeStructuredType(schema, managed)}
	et.finish = et.finishBuild
	return et
}

func (et *EntityType) finishBuild(s *structure) error {
	props, err := et.extractProperties(s)
	if err != nil {
		return err
	}
	navs, err := et.extractNavigationProperties(s)
	if err != nil {
		return err
	}
	keys, err := et.extractEdmKeyElements(s)
	if err != nil {
		return err
	}
	baseName := ""
	base, err := et.baseType()
	if err != nil {
		return err
	}
	if base != nil {
		baseName = et.schema.names.Qualified(base.ExternalName())
	}
	stream, err := et.determineStream(s)
	if err != nil {
		return err
	}

	et.hasEtag = determineHasEtag(s)
	et.stream = stream
	et.item = &csdl.EntityType{
		Name:                 et.ExternalName(),
		BaseType:             baseName,
		Abstract:             et.Abstract(),
		HasStream:            stream != nil,
		Key:                  keys,
		Properties:           props,
		NavigationProperties: navs,
	}
	return nil
}

// extractEdmKeyElements: встроенный ключ разворачивается в ссылки на поля своего типа.
func (et *EntityType) extractEdmKeyElements(s *structure) ([]csdl.PropertyRef, error) {
	var refs []csdl.PropertyRef
	for _, p := range s.properties.values() {
		if !p.IsKey() {
			continue
		}
		if !p.IsComplex() {
			refs = append(refs, csdl.PropertyRef{Name: p.ExternalName()})
			continue
		}
		ct, err := p.StructuredType()
		if err != nil {
			return nil, err
		}
		attrs, err := ct.Attributes()
		if err != nil {
			return nil, err
		}
		for _, a := range attrs {
			refs = append(refs, csdl.PropertyRef{Name: a.ExternalName()})
		}
	}
	if len(refs) == 0 {
		return nil, nil
	}
	return refs, nil
}

// determineStream: не больше одного потока на тип вместе с предками;
// поле MIME, если указано, должно существовать.
func (et *EntityType) determineStream(s *structure) (*Property, error) {
	var stream *Property
	for _, p := range s.properties.values() {
		if !p.IsStream() {
			continue
		}
		if stream != nil {
			return nil, modelError(KeyTooManyStreams, et.Name(), p.internalName, stream.internalName)
		}
		stream = p
	}
	base, err := et.baseType()
	if err != nil {
		return nil, err
	}
	if base != nil {
		inherited, err := base.streamProperty()
		if err != nil {
			return nil, err
		}
		if inherited != nil {
			if stream != nil {
				return nil, modelError(KeyTooManyStreams, et.Name(), stream.internalName, inherited.internalName)
			}
			stream = inherited
		}
	}
	if stream == nil || stream.ContentTypeProperty() == "" {
		return stream, nil
	}
	carrier := stream.ContentTypeProperty()
	if _, ok := s.properties.get(carrier); ok {
		return stream, nil
	}
	if base != nil {
		if _, err := base.Property(carrier); err == nil {
			return stream, nil
		}
	}
	return nil, modelError(KeyContentTypePropertyMissing, et.Name(), stream.internalName, carrier)
}

// учитываются только объявленные свойства, предки не смотрятся
func determineHasEtag(s *structure) bool {
	for _, p := range s.properties.values() {
		if p.IsEtag() {
			return true
		}
	}
	return false
}

func (et *EntityType) streamProperty() (*Property, error) {
	if _, err := et.lazyBuildEdmItem(); err != nil {
		return nil, err
	}
	return et.stream, nil
}

func (et *EntityType) EdmItem() (*csdl.EntityType, error) {
	if _, err := et.lazyBuildEdmItem(); err != nil {
		return nil, err
	}
	return et.item, nil
}

// Key: плоский список ключевых атрибутов: объявленные (встроенный ключ
// развёрнут в порядке своего типа), затем ключи предка.
func (et *EntityType) Key() ([]*Property, error) {
	s, err := et.lazyBuildEdmItem()
	if err != nil {
		return nil, err
	}
	var key []*Property
	for _, p := range s.properties.values() {
		if !p.IsKey() {
			continue
		}
		if !p.IsComplex() {
			key = append(key, p)
			continue
		}
		ct, err := p.StructuredType()
		if err != nil {
			return nil, err
		}
		attrs, err := ct.Attributes()
		if err != nil {
			return nil, err
		}
		key = append(key, attrs...)
	}
	base, err := et.BaseType()
	if err != nil {
		return nil, err
	}
	if base != nil {
		inherited, err := base.Key()
		if err != nil {
			return nil, err
		}
		key = append(key, inherited...)
	}
	return key, nil
}

// KeyPath работает как Key, но отдаёт пути; для встроенного ключа это промежуточный путь держателя.
func (et *EntityType) KeyPath() ([]*Path, error) {
	s, err := et.lazyBuildEdmItem()
	if err != nil {
		return nil, err
	}
	var result []*Path
	for _, p := range s.properties.values() {
		switch {
		case p.Kind() == KindEmbeddedKey:
			if ip, ok := s.paths.intermediate.get(p.ExternalName()); ok {
				result = append(result, ip)
			}
		case p.IsKey():
			if rp, ok := s.paths.resolved.get(p.ExternalName()); ok {
				result = append(result, rp)
			}
		}
	}
	base, err := et.BaseType()
	if err != nil {
		return nil, err
	}
	if base != nil {
		inherited, err := base.KeyPath()
		if err != nil {
			return nil, err
		}
		result = append(result, inherited...)
	}
	return result, nil
}

// BaseType разрешает предка по имени через схему; nil, если предка нет.
func (et *EntityType) BaseType() (*EntityType, error) { return et.baseType() }

// Abstract берётся из модификатора исходного типа.
func (et *EntityType) Abstract() bool { return et.managed.Abstract() }

func (et *EntityType) HasStream() (bool, error) {
	stream, err := et.streamProperty()
	if err != nil {
		return false, err
	}
	return stream != nil, nil
}

// HasEtag: есть ли среди объявленных (не унаследованных) свойств etag.
func (et *EntityType) HasEtag() (bool, error) {
	if _, err := et.lazyBuildEdmItem(); err != nil {
		return false, err
	}
	return et.hasEtag, nil
}

// ContentType: MIME потокового атрибута; ошибка, если потока нет.
func (et *EntityType) ContentType() (string, error) {
	stream, err := et.requireStream()
	if err != nil {
		return "", err
	}
	return stream.ContentType(), nil
}

func (et *EntityType) requireStream() (*Property, error) {
	stream, err := et.streamProperty()
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, modelError(KeyStreamPropertyMissing, et.Name(), "")
	}
	return stream, nil
}

func (et *EntityType) StreamAttributePath() (*Path, error) {
	stream, err := et.requireStream()
	if err != nil {
		return nil, err
	}
	return et.PathByDBField(stream.DBFieldName())
}

// ContentTypeAttributePath: путь поля с MIME потока; nil, если поле не задано.
// Ищется по колонке, чтобы скрытое (ignore) поле тоже находилось.
func (et *EntityType) ContentTypeAttributePath() (*Path, error) {
	stream, err := et.requireStream()
	if err != nil {
		return nil, err
	}
	carrier := stream.ContentTypeProperty()
	if carrier == "" {
		return nil, nil
	}
	p, err := et.Property(carrier)
	if err != nil {
		return nil, err
	}
	return et.PathByDBField(p.DBFieldName())
}

// TableName: явная аннотация таблицы, иначе FQN в верхнем регистре.
func (et *EntityType) TableName() string {
	if t := et.managed.Table(); t != "" {
		return t
	}
	return strings.ToUpper(et.managed.Name())
}

func (et *EntityType) EntitySetName() string {
	return et.schema.names.EntitySetName(et.ExternalName())
}

// SearchablePath: неигнорируемые пути, лист которых помечен для поиска.
func (et *EntityType) SearchablePath() ([]*Path, error) {
	all, err := et.PathList()
	if err != nil {
		return nil, err
	}
	var out []*Path
	for _, p := range all {
		if p.Leaf().IsSearchable() {
			out = append(out, p)
		}
	}
	return out, nil
}

// SearchChildPath раскрывает выбранный путь во все неигнорируемые листья под ним.
func (et *EntityType) SearchChildPath(selectItemPath *Path) ([]*Path, error) {
	if selectItemPath == nil {
		return nil, modelError(KeyPathNotFound, et.Name(), "", "")
	}
	s, err := et.lazyBuildEdmItem()
	if err != nil {
		return nil, err
	}
	var result []*Path
	for _, p := range s.paths.resolved.values() {
		if !p.Ignored() && p.isBelow(selectItemPath.Alias()) {
			result = append(result, p)
		}
	}
	return result, nil
}
