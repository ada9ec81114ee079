package reflectmeta

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/edm"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/metamodel"
)

type shipmentID struct {
	Origin      string `jpa:"maxlength=3"`
	Destination string `jpa:"maxlength=3"`
}

type customer struct {
	ID     int64    `jpa:"key,column=id"`
	Name   string   `jpa:"searchable,required"`
	Orders []*order `jpa:"mapped_by=Customer"`
}

type order struct {
	_        struct{} `jpa:"table=orders"`
	ID       int64    `jpa:"key"`
	Amount   string   `jpa:"type=Edm.Decimal,precision=18,scale=2"`
	Version  int32    `jpa:"etag"`
	Created  time.Time
	Note     *string
	Tags     []string
	Customer *customer `jpa:"column=customer_id"`
	internal int
	Skipped  string `jpa:"-"`
}

type shipment struct {
	ID      shipmentID `jpa:"key"`
	Carrier string
}

type document struct {
	_     struct{} `jpa:"abstract"`
	DocID int64    `jpa:"key"`
}

type invoice struct {
	document
	Total float64
}

type media struct {
	ID   [16]byte `jpa:"key"`
	Data []byte   `jpa:"stream,content_type=Mime"`
	Mime string   `jpa:"ignore,column=mime_type"`
}

func shopRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New("shop")
	require.NoError(t, r.Entity(order{}, &customer{}, shipment{}, document{}, invoice{}, media{}))
	require.NoError(t, r.Embeddable(shipmentID{}))
	return r
}

func TestProvider(t *testing.T) {
	types, err := shopRegistry(t).Provider()
	require.NoError(t, err)

	byName := map[string]metamodel.ManagedType{}
	var names []string
	for _, mt := range types {
		byName[mt.Name()] = mt
		names = append(names, mt.Name())
	}
	assert.Equal(t, []string{"shop.customer", "shop.document", "shop.invoice", "shop.media", "shop.order", "shop.shipment", "shop.shipmentID"}, names)

	o := byName["shop.order"]
	assert.Equal(t, "orders", o.Table())
	attrs := o.Attributes()
	require.Len(t, attrs, 7)
	assert.Equal(t, metamodel.Attribute{Name: "ID", Type: "Edm.Int64", Key: true}, attrs[0])
	assert.Equal(t, "Edm.Decimal", attrs[1].Type)
	assert.Equal(t, 18, attrs[1].Precision)
	assert.True(t, attrs[2].Etag)
	assert.Equal(t, "Edm.Int32", attrs[2].Type)
	assert.Equal(t, "Edm.DateTimeOffset", attrs[3].Type)
	require.NotNil(t, attrs[4].Nullable)
	assert.True(t, *attrs[4].Nullable)
	assert.True(t, attrs[5].Collection)
	assert.Equal(t, "Edm.String", attrs[5].Type)
	assert.Equal(t, metamodel.Association, attrs[6].Kind)
	assert.Equal(t, "shop.customer", attrs[6].Type)
	assert.Equal(t, "customer_id", attrs[6].DBFieldName())

	c := byName["shop.customer"].Attributes()
	assert.Equal(t, metamodel.Association, c[2].Kind)
	assert.True(t, c[2].Collection)
	require.NotNil(t, c[1].Nullable)
	assert.False(t, *c[1].Nullable)

	s := byName["shop.shipment"].Attributes()
	assert.Equal(t, metamodel.EmbeddedID, s[0].Kind)
	assert.Equal(t, "shop.shipmentID", s[0].Type)
	assert.Equal(t, metamodel.KindEmbeddable, byName["shop.shipmentID"].Kind())

	assert.True(t, byName["shop.document"].Abstract())
	assert.Equal(t, "shop.document", byName["shop.invoice"].Supertype())
	assert.Len(t, byName["shop.invoice"].Attributes(), 1)

	m := byName["shop.media"].Attributes()
	assert.Equal(t, "Edm.Guid", m[0].Type)
	assert.True(t, m[1].Stream)
	assert.Equal(t, "Edm.Binary", m[1].Type)
	assert.Equal(t, "Mime", m[1].ContentTypeProperty)
}

func TestProvider_FeedsSchema(t *testing.T) {
	types, err := shopRegistry(t).Provider()
	require.NoError(t, err)

	s, err := edm.NewSchema("Shop", types, nil)
	require.NoError(t, err)
	require.NoError(t, s.Finalize(context.Background(), 2))

	sh, err := s.EntityType("shipment")
	require.NoError(t, err)
	keys, err := sh.Key()
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "Origin", keys[0].InternalName())

	inv, err := s.EntityType("invoice")
	require.NoError(t, err)
	keys, err = inv.Key()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "DocID", keys[0].InternalName())

	md, err := s.EntityType("media")
	require.NoError(t, err)
	p, err := md.ContentTypeAttributePath()
	require.NoError(t, err)
	assert.Equal(t, "mime_type", p.DBFieldName())
}

func TestRegistry_Errors(t *testing.T) {
	t.Run("not a struct", func(t *testing.T) {
		assert.Error(t, New("a").Entity(42))
	})
	t.Run("twice", func(t *testing.T) {
		r := New("a")
		require.NoError(t, r.Entity(order{}))
		assert.Error(t, r.Entity(&order{}))
	})
	t.Run("unregistered base", func(t *testing.T) {
		r := New("a")
		require.NoError(t, r.Entity(invoice{}))
		_, err := r.Provider()
		assert.ErrorContains(t, err, "not a registered base entity")
	})
	t.Run("unsupported field", func(t *testing.T) {
		type weird struct {
			Ch chan int
		}
		r := New("a")
		require.NoError(t, r.Entity(weird{}))
		_, err := r.Provider()
		assert.ErrorContains(t, err, "field Ch")
	})
	t.Run("unknown type option", func(t *testing.T) {
		type odd struct {
			_  struct{} `jpa:"frozen"`
			ID int      `jpa:"key"`
		}
		r := New("a")
		require.NoError(t, r.Entity(odd{}))
		_, err := r.Provider()
		assert.ErrorContains(t, err, "unknown type option")
	})
}
