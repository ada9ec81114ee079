package dsl

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	typeRe     = regexp.MustCompile(`^(abstract\s+)?(entity|embeddable)\s+(\w+)(.*):\s*$`)
	fieldRe    = regexp.MustCompile(`^\s*([\w_]+):\s*([^\s#]+)(.*)$`)
	enumRe     = regexp.MustCompile(`^enum\[(.*)\]$`)
	refRe      = regexp.MustCompile(`^ref\[([A-Za-z0-9_.]+)\]$`)
	embeddedRe = regexp.MustCompile(`^embedded\[([A-Za-z0-9_.]+)\]$`)
	arrayRe    = regexp.MustCompile(`^array\[(.+)\]$`)
	moduleRe   = regexp.MustCompile(`^\s*module\s+([A-Za-z0-9_.-]+)\s*$`)
)

// splitOptionTokens делит "k=v k2='v 2' mime=image/png" на токены,
// не разрывая значения в кавычках и внутри [...].
func splitOptionTokens(s string) []string {
	var out []string
	var buf []rune
	inSingle, inDouble := false, false
	depth := 0

	flush := func() {
		if len(buf) > 0 {
			out = append(out, string(buf))
			buf = buf[:0]
		}
	}

	for _, r := range s {
		switch {
		case r == '\'' && !inDouble && depth == 0:
			inSingle = !inSingle
		case r == '"' && !inSingle && depth == 0:
			inDouble = !inDouble
		case r == '[' && !inSingle && !inDouble:
			depth++
		case r == ']' && !inSingle && !inDouble && depth > 0:
			depth--
		case (r == ' ' || r == '\t') && !inSingle && !inDouble && depth == 0:
			flush()
			continue
		}
		buf = append(buf, r)
	}
	flush()
	return out
}

// parseOptions превращает токены в map: флаг без значения → "true", кавычки снимаются.
func parseOptions(raw string) map[string]string {
	opts := map[string]string{}
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	if strings.HasPrefix(strings.ToLower(raw), "options:") {
		raw = strings.TrimSpace(raw[len("options:"):])
	}
	raw = strings.ReplaceAll(raw, ",", " ")

	for _, tok := range splitOptionTokens(raw) {
		if tok == "" {
			continue
		}
		k, v, found := strings.Cut(tok, "=")
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if !found {
			opts[k] = "true"
			continue
		}
		v = strings.TrimSpace(v)
		if len(v) >= 2 && (v[0] == '"' && v[len(v)-1] == '"' || v[0] == '\'' && v[len(v)-1] == '\'') {
			v = v[1 : len(v)-1]
		}
		opts[k] = v
	}
	return opts
}

// parseHeader разбирает "[abstract] entity|embeddable Name [extends X] [table=t] [ignore]:".
func parseHeader(m []string, module string) (*Entity, error) {
	e := &Entity{
		Module:   module,
		Name:     m[3],
		Kind:     m[2],
		Abstract: strings.TrimSpace(m[1]) != "",
	}
	tokens := splitOptionTokens(strings.TrimSpace(m[4]))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "extends":
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("%s: extends without a base type", e.Name)
			}
			i++
			e.Extends = tokens[i]
		case tok == "ignore":
			e.Ignore = true
		case strings.HasPrefix(tok, "table="):
			e.Table = strings.Trim(strings.TrimPrefix(tok, "table="), `"'`)
		default:
			return nil, fmt.Errorf("%s: unknown type option %q", e.Name, tok)
		}
	}
	if e.Kind == "embeddable" && (e.Extends != "" || e.Table != "" || e.Abstract) {
		return nil, fmt.Errorf("%s: embeddable types take no extends/table/abstract", e.Name)
	}
	return e, nil
}

func parseField(m []string) Field {
	name, rawType, tail := m[1], m[2], m[3]

	// склейка типов со скобками, разорванных пробелом
	for _, prefix := range []string{"enum[", "array["} {
		if strings.HasPrefix(rawType, prefix) && strings.Count(rawType, "[") > strings.Count(rawType, "]") {
			if idx := strings.LastIndex(tail, "]"); idx >= 0 {
				rawType += tail[:idx+1]
				tail = tail[idx+1:]
			}
		}
	}

	f := Field{Name: name, Type: rawType, Options: parseOptions(tail)}
	switch {
	case enumRe.MatchString(rawType):
		f.Type = "enum"
		f.Enum = enumValues(enumRe.FindStringSubmatch(rawType)[1])
	case refRe.MatchString(rawType):
		f.Type = "ref"
		f.RefTarget = refRe.FindStringSubmatch(rawType)[1]
	case embeddedRe.MatchString(rawType):
		f.Type = "embedded"
		f.RefTarget = embeddedRe.FindStringSubmatch(rawType)[1]
	case arrayRe.MatchString(rawType):
		f.Type = "array"
		elem := strings.TrimSpace(arrayRe.FindStringSubmatch(rawType)[1])
		f.ElemType = elem
		if em := enumRe.FindStringSubmatch(elem); em != nil {
			f.ElemType = "enum"
			f.Enum = enumValues(em[1])
		}
		if rm := refRe.FindStringSubmatch(elem); rm != nil {
			f.ElemType = "ref"
			f.RefTarget = rm[1]
		}
		if bm := embeddedRe.FindStringSubmatch(elem); bm != nil {
			f.ElemType = "embedded"
			f.RefTarget = bm[1]
		}
	}
	return f
}

func enumValues(inside string) []string {
	var out []string
	for _, p := range strings.Split(inside, ",") {
		if s := strings.Trim(strings.TrimSpace(p), `"'`); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Parse читает DSL из r. name используется только в сообщениях об ошибках.
func Parse(r io.Reader, name string) ([]*Entity, error) {
	var entities []*Entity
	var current *Entity
	module := ""
	lineNo := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if m := moduleRe.FindStringSubmatch(line); m != nil {
			module = m[1]
			continue
		}

		if m := typeRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				entities = append(entities, current)
			}
			e, err := parseHeader(m, module)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
			}
			current = e
			continue
		}
		if current == nil {
			// всё вне типа игнорируем
			continue
		}

		if m := fieldRe.FindStringSubmatch(line); m != nil {
			current.Fields = append(current.Fields, parseField(m))
			continue
		}
		return nil, fmt.Errorf("%s:%d: cannot parse %q", name, lineNo, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if current != nil {
		entities = append(entities, current)
	}
	return entities, nil
}

// LoadEntities читает один .dsl файл.
func LoadEntities(path string) ([]*Entity, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file, path)
}

// LoadAllEntities обходит каталог и собирает все типы по FQN.
func LoadAllEntities(root string) (map[string]*Entity, error) {
	result := make(map[string]*Entity)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".dsl") {
			return nil
		}

		ents, err := LoadEntities(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for _, e := range ents {
			if e.Module == "" {
				return fmt.Errorf("type %q in %s has no module; add `module <name>` at the top", e.Name, path)
			}
			fqn := e.FQN()
			if _, exists := result[fqn]; exists {
				return fmt.Errorf("duplicate type %q in module %q (file: %s)", e.Name, e.Module, path)
			}
			result[fqn] = e
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
