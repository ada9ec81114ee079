package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/language"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/config"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/dsl"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/edm"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/i18n"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/pg"
)

// Поставляемые model/ и messages/ должны собираться без ошибок.
func TestBundledModel(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	model, err := dsl.LoadModel("../../model")
	require.NoError(t, err)
	schema, err := edm.NewSchema("ShopService", model, log)
	require.NoError(t, err)
	require.NoError(t, schema.Finalize(context.Background(), 2))

	item, err := schema.EdmItem()
	require.NoError(t, err)
	var sets []string
	for _, es := range item.EntityContainer.EntitySets {
		sets = append(sets, es.Name)
	}
	assert.Equal(t, []string{"Attachments", "Customers", "Invoices", "Orders", "Shipments"}, sets)

	ddl, err := pg.GenerateDDL(schema)
	require.NoError(t, err)
	assert.Contains(t, ddl, "100_crm.customers")
	assert.Contains(t, ddl["200_fk_order_customer_id_fk"], "on delete RESTRICT")

	messages, err := i18n.Load("../../messages", "messages", language.English, log)
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "en"}, messages.Tags())

	_, err = schema.EntityType("Nope")
	require.Error(t, err)
	assert.Equal(t, "Typ Nope nicht gefunden", messages.Localize(err, i18n.Locale{Tag: language.German}))
}

// Каждый код ошибки модели имеет текст в каждом каталоге.
func TestBundledMessages_Complete(t *testing.T) {
	keys := []edm.MessageKey{
		edm.KeyComplexTypeMissing, edm.KeyInvalidEmbeddedKey, edm.KeyInvalidComplexType,
		edm.KeyBaseTypeMissing, edm.KeyNavigationTargetMissing, edm.KeyContentTypePropertyMissing,
		edm.KeyStreamPropertyMissing, edm.KeyTooManyStreams, edm.KeyInheritanceCycle,
		edm.KeyEmbeddingCycle, edm.KeyDuplicateType, edm.KeyDuplicateProperty,
		edm.KeyPropertyNotFound, edm.KeyPathNotFound, edm.KeyTypeNotFound,
	}
	catalogs, err := i18n.LoadCatalogs("../../messages", "messages", language.English)
	require.NoError(t, err)
	for tag, cat := range catalogs {
		for _, k := range keys {
			_, ok := cat[edm.ModelErrorKind+"."+string(k)]
			assert.True(t, ok, "%s: %s", tag, k)
		}
	}
}

func TestRun_MissingModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetaDir = filepath.Join(t.TempDir(), "nope")
	err := run(context.Background(), cfg, zaptest.NewLogger(t).Sugar())
	require.Error(t, err)
	assert.ErrorContains(t, err, "load model")
}

func TestRun_BrokenModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetaDir = writeModel(t, "module x\nentity A extends B:\n  id: long key\n")
	err := run(context.Background(), cfg, zaptest.NewLogger(t).Sugar())
	require.Error(t, err)
	assert.True(t, errors.Is(err, edm.ErrModel))
}

func TestRun_DuplicateExternalName(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetaDir = writeModel(t, "module x\nentity A:\n  id: long key\n  name: string\n  Name: int\n")
	err := run(context.Background(), cfg, zaptest.NewLogger(t).Sugar())
	require.Error(t, err)
	assert.ErrorIs(t, err, edm.ErrModel)
	assert.ErrorContains(t, err, "DUPLICATE_PROPERTY")
}

func TestStart_ExitCodes(t *testing.T) {
	assert.Equal(t, 2, start([]string{"-no-such-flag"}))
	assert.Equal(t, 1, start([]string{"-meta", filepath.Join(t.TempDir(), "nope"), "-messages", "../../messages"}))
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.json"), nil)
	require.NoError(t, err)
	cfg.MessagesDir = "../../messages"
	return cfg
}

func writeModel(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.dsl"), []byte(body), 0o644))
	return dir
}
