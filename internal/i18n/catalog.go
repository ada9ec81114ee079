package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Catalog: тексты одной локали: "Kind.KEY" → формат.
type Catalog map[string]string

// LoadCatalogs читает из dir файлы <bundle>.yaml (локаль по умолчанию)
// и <bundle>_<locale>.yaml. Файлы других бандлов пропускаются.
func LoadCatalogs(dir, bundle string, defaultTag language.Tag) (map[language.Tag]Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	result := make(map[language.Tag]Catalog)
	var base Catalog
	for _, entry := range entries {
		name := entry.Name()
		ext := filepath.Ext(name)
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		stem := strings.TrimSuffix(name, ext)

		var tag language.Tag
		switch {
		case stem == bundle:
			tag = defaultTag
		case strings.HasPrefix(stem, bundle+"_"):
			raw := strings.ReplaceAll(strings.TrimPrefix(stem, bundle+"_"), "_", "-")
			tag, err = language.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("catalog %s: locale %q: %w", name, raw, err)
			}
		default:
			continue
		}

		cat, err := readCatalog(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if stem == bundle {
			base = cat
			continue
		}
		result[tag] = merge(result[tag], cat)
	}
	// явный файл локали по умолчанию перекрывает <bundle>.yaml
	if base != nil {
		result[defaultTag] = merge(base, result[defaultTag])
	}
	return result, nil
}

func readCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	cat := make(Catalog)
	if err := flatten(cat, "", raw); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// flatten: вложенные ключи склеиваются через точку (ModelError: {KEY: ...} → ModelError.KEY).
func flatten(dst Catalog, prefix string, src map[string]any) error {
	for k, v := range src {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			dst[full] = val
		case map[string]any:
			if err := flatten(dst, full, val); err != nil {
				return err
			}
		default:
			return fmt.Errorf("key %q: expected text, got %T", full, v)
		}
	}
	return nil
}

func merge(into, from Catalog) Catalog {
	if into == nil {
		into = make(Catalog, len(from))
	}
	for k, v := range from {
		into[k] = v
	}
	return into
}
