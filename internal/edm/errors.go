package edm

import (
	"errors"
	"fmt"
	"strings"
)

// MessageKey: код нарушенного правила; он же ключ текста в каталоге сообщений.
type MessageKey string

const (
	KeyComplexTypeMissing         MessageKey = "COMPLEX_TYPE_MISSING"
	KeyInvalidEmbeddedKey         MessageKey = "INVALID_EMBEDDED_KEY"
	KeyInvalidComplexType         MessageKey = "INVALID_COMPLEX_TYPE"
	KeyBaseTypeMissing            MessageKey = "BASE_TYPE_MISSING"
	KeyNavigationTargetMissing    MessageKey = "NAVIGATION_TARGET_MISSING"
	KeyContentTypePropertyMissing MessageKey = "CONTENT_TYPE_PROPERTY_MISSING"
	KeyStreamPropertyMissing      MessageKey = "STREAM_PROPERTY_MISSING"
	KeyTooManyStreams             MessageKey = "TOO_MANY_STREAMS"
	KeyInheritanceCycle           MessageKey = "INHERITANCE_CYCLE"
	KeyEmbeddingCycle             MessageKey = "EMBEDDING_CYCLE"
	KeyDuplicateType              MessageKey = "DUPLICATE_TYPE"
	KeyDuplicateProperty          MessageKey = "DUPLICATE_PROPERTY"
	KeyPropertyNotFound           MessageKey = "PROPERTY_NOT_FOUND"
	KeyPathNotFound               MessageKey = "PATH_NOT_FOUND"
	KeyTypeNotFound               MessageKey = "TYPE_NOT_FOUND"
)

// ModelErrorKind: имя вида ошибки для поиска текста в каталоге сообщений.
const ModelErrorKind = "ModelError"

// ErrModel совпадает (errors.Is) с любой *ModelError.
var ErrModel = errors.New("model inconsistency")

// ModelError: ошибка построения схемы: какой тип, какой атрибут, какое правило.
type ModelError struct {
	Key       MessageKey
	Type      string // FQN типа-нарушителя
	Attribute string // внутреннее имя атрибута, может быть пустым
	Params    []string
	Err       error
}

func (e *ModelError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Key))
	if e.Type != "" {
		fmt.Fprintf(&b, ": type «%s»", e.Type)
	}
	if e.Attribute != "" {
		fmt.Fprintf(&b, ", attribute «%s»", e.Attribute)
	}
	if len(e.Params) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Params, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ModelError) Unwrap() error { return e.Err }

func (e *ModelError) Is(target error) bool { return target == ErrModel }

// Kind и MessageKey дают пару для поиска локализованного текста.
func (e *ModelError) Kind() string { return ModelErrorKind }
func (e *ModelError) MessageKey() string { return string(e.Key) }

// MessageParams: позиционные параметры текста: тип, атрибут, затем Params.
func (e *ModelError) MessageParams() []any {
	out := make([]any, 0, 2+len(e.Params))
	out = append(out, e.Type, e.Attribute)
	for _, p := range e.Params {
		out = append(out, p)
	}
	return out
}

func modelError(key MessageKey, typ, attr string, params ...string) *ModelError {
	return &ModelError{Key: key, Type: typ, Attribute: attr, Params: params}
}

func (e *ModelError) withCause(err error) *ModelError {
	e.Err = err
	return e
}
