package pg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/edm"
)

type OnDeletePolicy string

const (
	OnDeleteRestrict OnDeletePolicy = "RESTRICT"
	OnDeleteSetNull  OnDeletePolicy = "SET NULL"
)

// ключи карты DDL задают порядок применения
const (
	phaseSchemas     = "000_schemas"
	phaseTablePrefix = "100_"
	phaseFKPrefix    = "200_fk_"
)

func sqlIdent(s string) string { return `"` + strings.ToLower(s) + `"` }

// splitTable: "SHOP.ORDER" → ("shop", "order"); без точки схема пустая.
func splitTable(name string) (schema, table string) {
	if i := strings.LastIndexByte(name, '.'); i > 0 && i < len(name)-1 {
		return strings.ToLower(name[:i]), strings.ToLower(name[i+1:])
	}
	return "", strings.ToLower(name)
}

func qualifiedTable(name string) string {
	schema, table := splitTable(name)
	if schema == "" {
		return sqlIdent(table)
	}
	return sqlIdent(schema) + "." + sqlIdent(table)
}

// mapType переводит Edm-тип атрибута в тип Postgres.
func mapType(p *edm.Property) (string, error) {
	a := p.Attribute()
	if a.Collection {
		return "jsonb", nil
	}
	t := a.Type
	if t == "" {
		t = "Edm.String"
	}
	switch t {
	case "Edm.String":
		if a.MaxLength > 0 {
			return fmt.Sprintf("varchar(%d)", a.MaxLength), nil
		}
		return "text", nil
	case "Edm.Boolean":
		return "boolean", nil
	case "Edm.Byte", "Edm.SByte", "Edm.Int16":
		return "smallint", nil
	case "Edm.Int32":
		return "integer", nil
	case "Edm.Int64":
		return "bigint", nil
	case "Edm.Single":
		return "real", nil
	case "Edm.Double":
		return "double precision", nil
	case "Edm.Decimal":
		if a.Precision > 0 {
			return fmt.Sprintf("numeric(%d,%d)", a.Precision, a.Scale), nil
		}
		return "numeric", nil
	case "Edm.Date":
		return "date", nil
	case "Edm.DateTimeOffset":
		return "timestamp with time zone", nil
	case "Edm.TimeOfDay":
		return "time", nil
	case "Edm.Guid":
		return "uuid", nil
	case "Edm.Binary", "Edm.Stream":
		return "bytea", nil
	default:
		return "", fmt.Errorf("unknown type: %s", t)
	}
}

func onDeletePolicy(n *edm.NavigationProperty) OnDeletePolicy {
	if n.Required() {
		return OnDeleteRestrict
	}
	return OnDeleteSetNull
}

type column struct {
	name, typ string
	notNull   bool
}

type table struct {
	name    string
	columns []column
	seen    map[string]bool
	pk      []string
}

func (t *table) add(c column) {
	if t.seen[c.name] {
		return
	}
	t.seen[c.name] = true
	t.columns = append(t.columns, c)
}

type fkStmt struct {
	table, name, col, refTable, refCol string
	onDelete                           OnDeletePolicy
}

// GenerateDDL возвращает карту "фаза_объект" → SQL (схемы, таблицы, FK).
// Сущности с одинаковым TableName делят одну таблицу; абстрактные и
// игнорируемые сущности таблиц не порождают.
func GenerateDDL(schema *edm.Schema) (map[string]string, error) {
	tables := map[string]*table{}
	var order []string
	var fks []fkStmt

	for _, et := range schema.EntityTypes() {
		if et.Abstract() || et.Ignored() {
			continue
		}
		name := et.TableName()
		tbl, ok := tables[name]
		if !ok {
			tbl = &table{name: name, seen: map[string]bool{}}
			tables[name] = tbl
			order = append(order, name)
		}

		keys, err := et.Key()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", et.Name(), err)
		}
		keyCols := map[string]bool{}
		if len(tbl.pk) == 0 {
			for _, k := range keys {
				tbl.pk = append(tbl.pk, strings.ToLower(k.DBFieldName()))
			}
		}
		for _, k := range keys {
			keyCols[strings.ToLower(k.DBFieldName())] = true
		}

		paths, err := et.ColumnPaths()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", et.Name(), err)
		}
		for _, p := range paths {
			leaf := p.Leaf()
			typ, err := mapType(leaf)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", et.Name(), p.Alias(), err)
			}
			col := strings.ToLower(p.DBFieldName())
			nullable := leaf.Attribute().Nullable
			tbl.add(column{name: col, typ: typ, notNull: keyCols[col] || (nullable != nil && !*nullable)})
		}

		navs, err := et.NavigationProperties()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", et.Name(), err)
		}
		for _, n := range navs {
			if n.IsCollection() || n.JoinColumn() == "" {
				continue
			}
			target, err := n.TargetType()
			if err != nil {
				return nil, err
			}
			targetKeys, err := target.Key()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", target.Name(), err)
			}
			if len(targetKeys) != 1 {
				// составной ключ цели: FK по одной колонке невозможен
				continue
			}
			typ, err := mapType(targetKeys[0])
			if err != nil {
				return nil, err
			}
			col := strings.ToLower(n.JoinColumn())
			tbl.add(column{name: col, typ: typ, notNull: n.Required()})
			_, short := splitTable(name)
			fks = append(fks, fkStmt{
				table:    name,
				name:     short + "_" + col + "_fk",
				col:      col,
				refTable: target.TableName(),
				refCol:   strings.ToLower(targetKeys[0].DBFieldName()),
				onDelete: onDeletePolicy(n),
			})
		}
	}

	out := make(map[string]string, len(tables)+2)

	schemas := map[string]bool{}
	for _, name := range order {
		if s, _ := splitTable(name); s != "" {
			schemas[s] = true
		}
	}
	if len(schemas) > 0 {
		names := make([]string, 0, len(schemas))
		for s := range schemas {
			names = append(names, s)
		}
		sort.Strings(names)
		var sb strings.Builder
		for _, s := range names {
			fmt.Fprintf(&sb, "create schema if not exists %s;\n", sqlIdent(s))
		}
		out[phaseSchemas] = sb.String()
	}

	for _, name := range order {
		tbl := tables[name]
		defs := make([]string, 0, len(tbl.columns)+1)
		for _, c := range tbl.columns {
			null := "null"
			if c.notNull {
				null = "not null"
			}
			defs = append(defs, fmt.Sprintf("%s %s %s", sqlIdent(c.name), c.typ, null))
		}
		if len(tbl.pk) > 0 {
			pk := make([]string, 0, len(tbl.pk))
			for _, k := range tbl.pk {
				pk = append(pk, sqlIdent(k))
			}
			defs = append(defs, "primary key ("+strings.Join(pk, ", ")+")")
		}
		out[phaseTablePrefix+strings.ToLower(name)] = fmt.Sprintf("create table if not exists %s (\n  %s\n);\n",
			qualifiedTable(name), strings.Join(defs, ",\n  "))
	}

	// FK: после создания всех таблиц, по одному на ключ карты:
	// повтор (42710) пропускается, не ломая соседние
	for _, fk := range fks {
		if _, ok := tables[fk.refTable]; !ok {
			continue
		}
		out[phaseFKPrefix+fk.name] = fmt.Sprintf(
			"alter table %s add constraint %s foreign key (%s) references %s(%s) on delete %s;\n",
			qualifiedTable(fk.table), sqlIdent(fk.name), sqlIdent(fk.col),
			qualifiedTable(fk.refTable), sqlIdent(fk.refCol), fk.onDelete)
	}
	return out, nil
}
