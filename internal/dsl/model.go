package dsl

// Entity описывает один тип из DSL: entity или embeddable
type Entity struct {
	Module   string
	Name     string
	Kind     string // "entity" | "embeddable"
	Abstract bool
	Extends  string // как написано в файле; без точки значит тот же модуль
	Table    string
	Ignore   bool
	Fields   []Field
}

// FQN: "<module>.<Name>"
func (e *Entity) FQN() string {
	if e.Module == "" {
		return e.Name
	}
	return e.Module + "." + e.Name
}

// Field описывает поле типа
type Field struct {
	Name      string
	Type      string            // string, int, decimal, stream, enum, ref, embedded, array ...
	Enum      []string          // значения enum, если поле типа enum
	RefTarget string            // цель ref[...] / embedded[...]
	ElemType  string            // тип элемента для array[...]
	Options   map[string]string // key, etag, column=..., и прочие опции
}

// Flag: опция-флаг ("key", "etag"...), заданная без значения или со значением true.
func (f Field) Flag(name string) bool {
	v, ok := f.Options[name]
	return ok && (v == "true" || v == "")
}
