// Package metamodel описывает входные метаданные персистентного слоя:
// типы (entity/embeddable) и их объявленные атрибуты. Только чтение.
package metamodel

import "strings"

type TypeKind int

const (
	KindEntity TypeKind = iota
	KindEmbeddable
)

func (k TypeKind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindEmbeddable:
		return "embeddable"
	default:
		return "unknown"
	}
}

type AttributeKind int

const (
	// Basic: скалярный атрибут (в т.ч. бинарный поток)
	Basic AttributeKind = iota
	// Embedded: вложенный embeddable-тип (complex)
	Embedded
	// EmbeddedID: составной ключ, хранимый как embeddable
	EmbeddedID
	// Association: ссылка на другую сущность (навигация)
	Association
)

func (k AttributeKind) String() string {
	switch k {
	case Basic:
		return "basic"
	case Embedded:
		return "embedded"
	case EmbeddedID:
		return "embedded_id"
	case Association:
		return "association"
	default:
		return "unknown"
	}
}

// Attribute: одно объявленное поле типа, как его видит провайдер рефлексии.
type Attribute struct {
	Name   string // внутреннее имя (имя поля)
	Column string // имя колонки в хранилище; пусто → Name
	Type   string // Edm-примитив ("Edm.String") или FQN целевого типа для Embedded/EmbeddedID/Association
	Kind   AttributeKind

	Key        bool
	Etag       bool
	Stream     bool
	Searchable bool
	Ignore     bool
	Collection bool
	Nullable   *bool

	MaxLength int
	Precision int
	Scale     int

	ContentType         string // статический MIME потока
	ContentTypeProperty string // внутреннее имя поля, в котором лежит MIME потока
	MappedBy            string // партнёр навигации
}

// DBFieldName возвращает имя колонки; по умолчанию совпадает с именем поля.
func (a Attribute) DBFieldName() string {
	if strings.TrimSpace(a.Column) != "" {
		return a.Column
	}
	return a.Name
}

// ManagedType: описание одного персистентного типа.
type ManagedType interface {
	Name() string // FQN, например "com.example.Order"
	Kind() TypeKind
	Abstract() bool
	Supertype() string // FQN базовой сущности или ""
	Table() string     // явная аннотация таблицы или ""
	Ignored() bool
	Attributes() []Attribute // только объявленные, в порядке объявления
}

// Provider отдаёт все типы метамодели.
type Provider interface {
	Types() []ManagedType
}

// Type: простая in-memory реализация ManagedType.
type Type struct {
	FQN        string
	TypeKind   TypeKind
	IsAbstract bool
	Extends    string
	TableName  string
	Ignore     bool
	Attrs      []Attribute
}

func (t *Type) Name() string { return t.FQN }
func (t *Type) Kind() TypeKind { return t.TypeKind }
func (t *Type) Abstract() bool { return t.IsAbstract }
func (t *Type) Supertype() string { return t.Extends }
func (t *Type) Table() string { return t.TableName }
func (t *Type) Ignored() bool { return t.Ignore }
func (t *Type) Attributes() []Attribute { return append([]Attribute(nil), t.Attrs...) }

// SimpleName возвращает имя без пакета/модуля.
func SimpleName(fqn string) string {
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 && i < len(fqn)-1 {
		return fqn[i+1:]
	}
	return fqn
}

// Static: провайдер поверх готового списка типов.
type Static []ManagedType

func (s Static) Types() []ManagedType { return append([]ManagedType(nil), s...) }
