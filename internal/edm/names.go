package edm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/metamodel"
)

// PathSeparator разделяет сегменты алиаса вложенного пути.
const PathSeparator = "/"

// NameBuilder строит внешние (видимые в схеме) имена из внутренних.
type NameBuilder struct {
	Namespace string
}

func (b NameBuilder) TypeName(fqn string) string { return metamodel.SimpleName(fqn) }

func (b NameBuilder) PropertyName(internal string) string { return firstToUpper(internal) }

func (b NameBuilder) NavigationName(internal string) string { return firstToUpper(internal) }

// EntitySetName: множественное число от имени типа (Order → Orders, Company → Companies).
func (b NameBuilder) EntitySetName(typeName string) string { return plural(typeName) }

func (b NameBuilder) Path(base, child string) string {
	if base == "" {
		return child
	}
	return base + PathSeparator + child
}

// Qualified: полное имя типа в схеме: "<namespace>.<Name>".
func (b NameBuilder) Qualified(external string) string {
	if b.Namespace == "" {
		return external
	}
	return b.Namespace + "." + external
}

func firstToUpper(s string) string {
	if s == "" {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}

// элементарная плюрализация; регистр не трогаем
func plural(s string) string {
	if s == "" || strings.HasSuffix(s, "s") {
		return s
	}
	if strings.HasSuffix(s, "y") && len(s) > 1 && !strings.ContainsRune("aeiouAEIOU", rune(s[len(s)-2])) {
		return s[:len(s)-1] + "ies"
	}
	return s + "s"
}
