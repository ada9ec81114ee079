package api

import (
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/i18n"
)

type format int

const (
	formatJSON format = iota
	formatXML
)

// ==== Параметры запроса метаданных ====

type metaParams struct {
	Select []string
	Format format
	Locale i18n.Locale
}

// parseMetaParams понимает $select, $format и locale; Accept-Language
// задаёт список предпочтений, locale задаёт явную локаль.
func parseMetaParams(q url.Values, acceptLanguage string) metaParams {
	p := metaParams{
		Select: parseSelect(q.Get("$select")),
		Format: parseFormat(q.Get("$format")),
		Locale: i18n.Locale{Preferred: i18n.ParseAcceptLanguage(acceptLanguage)},
	}
	if v := strings.TrimSpace(q.Get("locale")); v != "" {
		if tag, err := language.Parse(v); err == nil {
			p.Locale.Tag = tag
		}
	}
	return p
}

// parseSelect: "a, b/c,,a" → [a b/c]; пустые и повторы выбрасываются.
func parseSelect(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.Trim(strings.TrimSpace(part), "/")
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

func parseFormat(v string) format {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "xml" || strings.HasSuffix(v, "/xml") {
		return formatXML
	}
	return formatJSON
}
