package dsl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/metamodel"
)

const shopDSL = `
module shop

# заказы
entity Order table=orders:
  id: long key
  amount: decimal precision=18, scale=2
  version: int etag
  status: enum[new, paid, "shipped"]
  customer: ref[Customer] column=customer_id mapped_by=orders
  tags: array[string]

embeddable ShipmentId:
  origin: string maxlength=3
  destination: string maxlength=3

entity Shipment:
  id: embedded[ShipmentId] key
  carrier: string searchable required

abstract entity Document:
  docId: long key

entity Invoice extends Document:
  total: money

entity Media:
  id: long key
  data: stream content_type=mime column=blob
  mime: string ignore column=mime_type
  photo: binary stream mime='image/png'
`

func TestParse(t *testing.T) {
	ents, err := Parse(strings.NewReader(shopDSL), "shop.dsl")
	require.NoError(t, err)
	require.Len(t, ents, 6)

	order := ents[0]
	assert.Equal(t, "shop.Order", order.FQN())
	assert.Equal(t, "entity", order.Kind)
	assert.Equal(t, "orders", order.Table)
	require.Len(t, order.Fields, 6)
	assert.Equal(t, "18", order.Fields[1].Options["precision"])
	assert.Equal(t, "2", order.Fields[1].Options["scale"])
	assert.Equal(t, []string{"new", "paid", "shipped"}, order.Fields[3].Enum)
	assert.Equal(t, "ref", order.Fields[4].Type)
	assert.Equal(t, "Customer", order.Fields[4].RefTarget)
	assert.Equal(t, "array", order.Fields[5].Type)
	assert.Equal(t, "string", order.Fields[5].ElemType)

	assert.Equal(t, "embeddable", ents[1].Kind)
	assert.True(t, ents[3].Abstract)
	assert.Equal(t, "Document", ents[4].Extends)
	assert.Equal(t, "image/png", ents[5].Fields[3].Options["mime"])
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown option":     "module a\nentity X frozen:\n  id: int key\n",
		"dangling extends":   "module a\nentity X extends:\n",
		"embeddable extends": "module a\nembeddable X extends Y:\n",
		"garbage line":       "module a\nentity X:\n  ???\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(src), "bad.dsl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.dsl:")
		})
	}
}

func TestSplitOptionTokens(t *testing.T) {
	got := splitOptionTokens(`key column="a b" pattern=[x y] mime='text/plain; charset=utf-8'`)
	assert.Equal(t, []string{"key", `column="a b"`, "pattern=[x y]", `mime='text/plain; charset=utf-8'`}, got)
}

func TestToManagedType(t *testing.T) {
	ents, err := Parse(strings.NewReader(shopDSL), "shop.dsl")
	require.NoError(t, err)

	byName := map[string]*metamodel.Type{}
	for _, e := range ents {
		mt, err := ToManagedType(e)
		require.NoError(t, err)
		byName[e.Name] = mt
	}

	order := byName["Order"]
	assert.Equal(t, metamodel.KindEntity, order.Kind())
	assert.Equal(t, "orders", order.Table())
	attrs := order.Attributes()
	assert.Equal(t, metamodel.Attribute{Name: "id", Type: "Edm.Int64", Key: true}, attrs[0])
	assert.Equal(t, 18, attrs[1].Precision)
	assert.Equal(t, "Edm.String", attrs[3].Type)
	assert.Equal(t, metamodel.Association, attrs[4].Kind)
	assert.Equal(t, "shop.Customer", attrs[4].Type)
	assert.Equal(t, "customer_id", attrs[4].DBFieldName())
	assert.Equal(t, "orders", attrs[4].MappedBy)
	assert.True(t, attrs[5].Collection)

	shipment := byName["Shipment"].Attributes()
	assert.Equal(t, metamodel.EmbeddedID, shipment[0].Kind)
	assert.Equal(t, "shop.ShipmentId", shipment[0].Type)
	require.NotNil(t, shipment[1].Nullable)
	assert.False(t, *shipment[1].Nullable)
	assert.True(t, shipment[1].Searchable)
	assert.Equal(t, 3, byName["ShipmentId"].Attributes()[0].MaxLength)
	assert.Equal(t, metamodel.KindEmbeddable, byName["ShipmentId"].Kind())

	assert.True(t, byName["Document"].Abstract())
	assert.Equal(t, "shop.Document", byName["Invoice"].Supertype())

	media := byName["Media"].Attributes()
	assert.True(t, media[1].Stream)
	assert.Equal(t, "mime", media[1].ContentTypeProperty)
	assert.Equal(t, "blob", media[1].DBFieldName())
	assert.True(t, media[2].Ignore)
	assert.True(t, media[3].Stream)
	assert.Equal(t, "image/png", media[3].ContentType)
}

func TestToManagedType_Errors(t *testing.T) {
	for name, field := range map[string]Field{
		"unknown type":      {Name: "x", Type: "blob", Options: map[string]string{}},
		"bad nullable":      {Name: "x", Type: "int", Options: map[string]string{"nullable": "perhaps"}},
		"bad maxlength":     {Name: "x", Type: "string", Options: map[string]string{"maxlength": "long"}},
		"stream collection": {Name: "x", Type: "array", ElemType: "stream", Options: map[string]string{}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ToManagedType(&Entity{Module: "a", Name: "X", Kind: "entity", Fields: []Field{field}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "a.X.x")
		})
	}
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.dsl"), []byte(shopDSL), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "crm"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crm", "customer.DSL"), []byte(`
module shop
entity Customer:
  id: long key
  orders: array[ref[Order]] mapped_by=customer
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not dsl"), 0o644))

	m, err := LoadModel(dir)
	require.NoError(t, err)
	var names []string
	for _, mt := range m.Types() {
		names = append(names, mt.Name())
	}
	assert.Equal(t, []string{"shop.Customer", "shop.Document", "shop.Invoice", "shop.Media", "shop.Order", "shop.Shipment", "shop.ShipmentId"}, names)
}

func TestLoadAllEntities_Errors(t *testing.T) {
	t.Run("no module", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.dsl"), []byte("entity X:\n  id: int key\n"), 0o644))
		_, err := LoadAllEntities(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no module")
	})
	t.Run("duplicate", func(t *testing.T) {
		dir := t.TempDir()
		src := []byte("module a\nentity X:\n  id: int key\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.dsl"), src, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.dsl"), src, 0o644))
		_, err := LoadAllEntities(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate type")
	})
}
