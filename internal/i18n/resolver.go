// Package i18n отвечает за поиск локализованных текстов ошибок по паре (вид, ключ).
package i18n

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrMessageNotFound: текста нет ни в выбранном каталоге, ни в каталоге по умолчанию.
var ErrMessageNotFound = errors.New("message not found")

type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("message not found: %s.%s", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrMessageNotFound }

// Locale: запрошенная локаль: явный Tag важнее списка предпочтений.
type Locale struct {
	Tag       language.Tag
	Preferred []language.Tag
}

// Message: ошибка, которая умеет назвать свой текст в каталоге.
type Message interface {
	Kind() string
	MessageKey() string
	MessageParams() []any
}

// Resolver неизменяем после создания; локаль по умолчанию задаётся
// при создании и в глобальном состоянии не хранится.
type Resolver struct {
	defaultTag language.Tag
	catalogs   map[language.Tag]Catalog
	log        *zap.SugaredLogger
}

func NewResolver(defaultTag language.Tag, catalogs map[language.Tag]Catalog, logger *zap.SugaredLogger) *Resolver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if catalogs == nil {
		catalogs = map[language.Tag]Catalog{}
	}
	return &Resolver{defaultTag: defaultTag, catalogs: catalogs, log: logger}
}

// Load читает каталоги бандла из dir.
func Load(dir, bundle string, defaultTag language.Tag, logger *zap.SugaredLogger) (*Resolver, error) {
	catalogs, err := LoadCatalogs(dir, bundle, defaultTag)
	if err != nil {
		return nil, err
	}
	r := NewResolver(defaultTag, catalogs, logger)
	r.log.Infow("message catalogs loaded", "dir", dir, "bundle", bundle, "locales", r.Tags())
	return r, nil
}

func (r *Resolver) DefaultTag() language.Tag { return r.defaultTag }

// Tags: локали, для которых есть каталог.
func (r *Resolver) Tags() []string {
	out := make([]string, 0, len(r.catalogs))
	for tag := range r.catalogs {
		out = append(out, tag.String())
	}
	sort.Strings(out)
	return out
}

// catalogFor ищет каталог для тега или его родителей (de-CH → de).
func (r *Resolver) catalogFor(tag language.Tag) (language.Tag, bool) {
	for t := tag; t != language.Und; t = t.Parent() {
		if _, ok := r.catalogs[t]; ok {
			return t, true
		}
	}
	return language.Und, false
}

func (r *Resolver) choose(loc Locale) language.Tag {
	if loc.Tag != language.Und {
		if t, ok := r.catalogFor(loc.Tag); ok {
			return t
		}
	} else {
		for _, pref := range loc.Preferred {
			if t, ok := r.catalogFor(pref); ok {
				return t
			}
		}
	}
	return r.defaultTag
}

// Resolve возвращает отформатированный текст для kind.key.
func (r *Resolver) Resolve(kind, key string, loc Locale, params ...any) (string, error) {
	id := kind + "." + key
	tag := r.choose(loc)
	text, ok := r.catalogs[tag][id]
	if !ok && tag != r.defaultTag {
		r.log.Debugw("message missing in locale, using default", "id", id, "locale", tag.String())
		tag = r.defaultTag
		text, ok = r.catalogs[tag][id]
	}
	if !ok {
		return "", &NotFoundError{Kind: kind, Key: key}
	}
	return message.NewPrinter(tag).Sprintf(text, params...), nil
}

// Localize переводит ошибку, если она знает свой ключ; иначе возвращает err.Error().
func (r *Resolver) Localize(err error, loc Locale) string {
	var m Message
	if !errors.As(err, &m) {
		return err.Error()
	}
	text, rerr := r.Resolve(m.Kind(), m.MessageKey(), loc, m.MessageParams()...)
	if rerr != nil {
		r.log.Warnw("no localized text", "kind", m.Kind(), "key", m.MessageKey(), "error", rerr)
		return err.Error()
	}
	return text
}

// ParseAcceptLanguage разбирает заголовок Accept-Language; мусор → пустой список.
func ParseAcceptLanguage(header string) []language.Tag {
	if header == "" {
		return nil
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}
	return tags
}
