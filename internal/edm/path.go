package edm

import "strings"

// Path: маршрут от алиаса схемы до атрибута (через вложенные complex-атрибуты).
type Path struct {
	alias    string
	dbField  string
	elements []*Property // от внешнего к листу
}

func newPath(alias, dbField string, elements ...*Property) *Path {
	return &Path{alias: alias, dbField: dbField, elements: elements}
}

// prefixed: тот же путь, вложенный под holder.
func (p *Path) prefixed(alias string, holder *Property) *Path {
	elements := make([]*Property, 0, len(p.elements)+1)
	elements = append(elements, holder)
	elements = append(elements, p.elements...)
	return newPath(alias, p.dbField, elements...)
}

func (p *Path) Alias() string { return p.alias }

func (p *Path) DBFieldName() string { return p.dbField }

func (p *Path) Leaf() *Property { return p.elements[len(p.elements)-1] }

func (p *Path) Elements() []*Property { return append([]*Property(nil), p.elements...) }

// Ignored: путь скрыт, если скрыт любой элемент на нём.
func (p *Path) Ignored() bool {
	for _, e := range p.elements {
		if e.Ignored() {
			return true
		}
	}
	return false
}

// isBelow: алиас равен base или лежит под ним по границе сегмента.
func (p *Path) isBelow(base string) bool {
	return p.alias == base || strings.HasPrefix(p.alias, base+PathSeparator)
}

func (p *Path) String() string { return p.alias }

// orderedMap: map с сохранением порядка вставки.
type orderedMap[V any] struct {
	keys  []string
	items map[string]V
}

func newOrderedMap[V any]() *orderedMap[V] {
	return &orderedMap[V]{items: make(map[string]V)}
}

// putIfAbsent возвращает false, если ключ уже занят.
func (m *orderedMap[V]) putIfAbsent(k string, v V) bool {
	if _, ok := m.items[k]; ok {
		return false
	}
	m.keys = append(m.keys, k)
	m.items[k] = v
	return true
}

func (m *orderedMap[V]) get(k string) (V, bool) {
	v, ok := m.items[k]
	return v, ok
}

func (m *orderedMap[V]) len() int { return len(m.keys) }

func (m *orderedMap[V]) values() []V {
	out := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.items[k])
	}
	return out
}

// pathResolver держит две карты алиасов: промежуточные пути (в т.ч. complex)
// и полностью развёрнутые пути до листьев, плюс обратный индекс по колонке.
type pathResolver struct {
	intermediate *orderedMap[*Path]
	resolved     *orderedMap[*Path]
	byDBField    map[string]*Path
}

func newPathResolver() pathResolver {
	return pathResolver{
		intermediate: newOrderedMap[*Path](),
		resolved:     newOrderedMap[*Path](),
		byDBField:    make(map[string]*Path),
	}
}

// taken: алиас уже занят в одной из карт.
func (r pathResolver) taken(alias string) bool {
	if _, ok := r.resolved.get(alias); ok {
		return true
	}
	_, ok := r.intermediate.get(alias)
	return ok
}

func (r pathResolver) putResolved(p *Path) bool {
	return !r.taken(p.alias) && r.resolved.putIfAbsent(p.alias, p)
}

func (r pathResolver) putIntermediate(p *Path) bool {
	return !r.taken(p.alias) && r.intermediate.putIfAbsent(p.alias, p)
}

// addScalar регистрирует лист верхнего уровня.
// При конфликте возвращает занятый алиас и false.
func (r pathResolver) addScalar(p *Property) (string, bool) {
	alias := p.ExternalName()
	return alias, r.putResolved(newPath(alias, p.DBFieldName(), p))
}

// addComplex разворачивает пути complex-типа под holder.
// Для встроенного ключа листья остаются под своими алиасами: в схеме они
// выглядят как собственные свойства сущности.
func (r pathResolver) addComplex(names NameBuilder, holder *Property, nested pathResolver) (string, bool) {
	alias := holder.ExternalName()
	flatten := holder.Kind() == KindEmbeddedKey
	if !r.putIntermediate(newPath(alias, holder.DBFieldName(), holder)) {
		return alias, false
	}
	for _, ip := range nested.intermediate.values() {
		p := ip
		if !flatten {
			full := names.Path(alias, ip.alias)
			p = ip.prefixed(full, holder)
		}
		if !r.putIntermediate(p) {
			return p.alias, false
		}
	}
	for _, rp := range nested.resolved.values() {
		full := rp.alias
		if !flatten {
			full = names.Path(alias, rp.alias)
		}
		if !r.putResolved(rp.prefixed(full, holder)) {
			return full, false
		}
	}
	return "", true
}

// merge дописывает пути базового типа. Собственный алиас, совпавший
// с унаследованным, считается конфликтом.
func (r pathResolver) merge(base pathResolver) (string, bool) {
	for _, p := range base.intermediate.values() {
		if !r.putIntermediate(p) {
			return p.alias, false
		}
	}
	for _, p := range base.resolved.values() {
		if !r.putResolved(p) {
			return p.alias, false
		}
	}
	return "", true
}

// index строит обратный индекс колонка → путь; первый путь выигрывает.
func (r pathResolver) index() {
	for _, p := range r.resolved.values() {
		if _, ok := r.byDBField[p.dbField]; !ok {
			r.byDBField[p.dbField] = p
		}
	}
}

func (r pathResolver) path(alias string) (*Path, bool) {
	if p, ok := r.resolved.get(alias); ok {
		return p, true
	}
	return r.intermediate.get(alias)
}
