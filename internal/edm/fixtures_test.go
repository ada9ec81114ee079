package edm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/metamodel"
)

const testNamespace = "ShopService"

func key(name, typ string) metamodel.Attribute {
	return metamodel.Attribute{Name: name, Type: typ, Key: true}
}

func basic(name, typ string) metamodel.Attribute {
	return metamodel.Attribute{Name: name, Type: typ}
}

func entity(fqn string, attrs ...metamodel.Attribute) *metamodel.Type {
	return &metamodel.Type{FQN: fqn, TypeKind: metamodel.KindEntity, Attrs: attrs}
}

func embeddable(fqn string, attrs ...metamodel.Attribute) *metamodel.Type {
	return &metamodel.Type{FQN: fqn, TypeKind: metamodel.KindEmbeddable, Attrs: attrs}
}

// shopModel: общая модель для большинства тестов.
func shopModel() metamodel.Static {
	version := basic("version", "Edm.Int32")
	version.Etag = true

	customerRef := metamodel.Attribute{Name: "customer", Type: "shop.Customer", Kind: metamodel.Association, Column: "customer_id", MappedBy: "orders"}
	ordersRef := metamodel.Attribute{Name: "orders", Type: "shop.Order", Kind: metamodel.Association, Collection: true, MappedBy: "customer"}

	name := basic("name", "Edm.String")
	name.Searchable = true
	city := basic("city", "Edm.String")
	city.Searchable = true

	docVersion := basic("version", "Edm.Int32")
	docVersion.Etag = true

	return metamodel.Static{
		entity("shop.Order",
			key("id", "Edm.Int64"),
			basic("amount", "Edm.Decimal"),
			version,
			customerRef,
		),
		embeddable("shop.ShipmentId",
			basic("origin", "Edm.String"),
			basic("destination", "Edm.String"),
		),
		entity("shop.Shipment",
			metamodel.Attribute{Name: "id", Type: "shop.ShipmentId", Kind: metamodel.EmbeddedID},
			basic("carrier", "Edm.String"),
		),
		&metamodel.Type{
			FQN: "shop.Document", TypeKind: metamodel.KindEntity, IsAbstract: true, TableName: "documents",
			Attrs: []metamodel.Attribute{key("docId", "Edm.Int64"), basic("title", "Edm.String"), docVersion},
		},
		&metamodel.Type{
			FQN: "shop.Invoice", TypeKind: metamodel.KindEntity, Extends: "shop.Document",
			Attrs: []metamodel.Attribute{basic("total", "Edm.Decimal")},
		},
		&metamodel.Type{
			FQN: "shop.InvoiceLine", TypeKind: metamodel.KindEntity, Extends: "shop.Document",
			Attrs: []metamodel.Attribute{key("lineNo", "Edm.Int32"), basic("qty", "Edm.Int32")},
		},
		embeddable("shop.Geo", basic("lat", "Edm.Double"), basic("lon", "Edm.Double")),
		embeddable("shop.Address",
			basic("street", "Edm.String"),
			city,
			metamodel.Attribute{Name: "geo", Type: "shop.Geo", Kind: metamodel.Embedded},
		),
		entity("shop.Customer",
			key("id", "Edm.Int64"),
			name,
			metamodel.Attribute{Name: "address", Type: "shop.Address", Kind: metamodel.Embedded},
			basic("addressLine", "Edm.String"),
			ordersRef,
		),
		entity("shop.Media",
			key("id", "Edm.Int64"),
			metamodel.Attribute{Name: "data", Type: "Edm.Binary", Stream: true, Column: "blob", ContentTypeProperty: "mime"},
			metamodel.Attribute{Name: "mime", Type: "Edm.String", Ignore: true, Column: "mime_type"},
		),
	}
}

func newTestSchema(t *testing.T, types metamodel.Static) *Schema {
	t.Helper()
	s, err := NewSchema(testNamespace, types, zap.NewNop().Sugar())
	require.NoError(t, err)
	return s
}

func mustEntity(t *testing.T, s *Schema, name string) *EntityType {
	t.Helper()
	et, err := s.EntityType(name)
	require.NoError(t, err)
	return et
}

func requireModelError(t *testing.T, err error, key MessageKey) *ModelError {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModel)
	var me *ModelError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, key, me.Key, err.Error())
	return me
}

func internalNames(props []*Property) []string {
	out := make([]string, 0, len(props))
	for _, p := range props {
		out = append(out, p.InternalName())
	}
	return out
}

func aliases(paths []*Path) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, p.Alias())
	}
	return out
}
