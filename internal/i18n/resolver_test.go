package i18n

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "messages.yaml", `
ModelError:
  TOO_MANY_STREAMS: "Type %[1]s has more than one stream"
  ONLY_DEFAULT: "only in english"
Other.FLAT: "flat %[1]d"
`)
	writeFile(t, dir, "messages_de.yaml", `
ModelError:
  TOO_MANY_STREAMS: "Typ %[1]s hat mehr als einen Stream"
`)
	writeFile(t, dir, "messages_fr.yml", `
ModelError.TOO_MANY_STREAMS: "Le type %[1]s a plusieurs flux"
`)
	writeFile(t, dir, "other_de.yaml", `ModelError.TOO_MANY_STREAMS: "falsch"`)
	writeFile(t, dir, "readme.txt", "ignored")

	r, err := Load(dir, "messages", language.English, nil)
	require.NoError(t, err)
	return r
}

func TestLoad(t *testing.T) {
	r := testResolver(t)
	assert.Equal(t, []string{"de", "en", "fr"}, r.Tags())
	assert.Equal(t, language.English, r.DefaultTag())
}

func TestResolve_LocaleSelection(t *testing.T) {
	r := testResolver(t)
	cases := []struct {
		name string
		loc  Locale
		want string
	}{
		{"no locale", Locale{}, "Type shop.A has more than one stream"},
		{"explicit", Locale{Tag: language.German}, "Typ shop.A hat mehr als einen Stream"},
		{"explicit parent", Locale{Tag: language.MustParse("de-CH")}, "Typ shop.A hat mehr als einen Stream"},
		{"explicit overrides preferred", Locale{Tag: language.French, Preferred: []language.Tag{language.German}}, "Le type shop.A a plusieurs flux"},
		{"explicit unknown falls to default", Locale{Tag: language.Japanese, Preferred: []language.Tag{language.German}}, "Type shop.A has more than one stream"},
		{"first preferred with catalog", Locale{Preferred: []language.Tag{language.Japanese, language.French, language.German}}, "Le type shop.A a plusieurs flux"},
		{"no preferred matches", Locale{Preferred: []language.Tag{language.Japanese}}, "Type shop.A has more than one stream"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Resolve("ModelError", "TOO_MANY_STREAMS", tc.loc, "shop.A")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_FallbackAndMissing(t *testing.T) {
	r := testResolver(t)

	got, err := r.Resolve("ModelError", "ONLY_DEFAULT", Locale{Tag: language.German})
	require.NoError(t, err)
	assert.Equal(t, "only in english", got)

	got, err = r.Resolve("Other", "FLAT", Locale{}, 7)
	require.NoError(t, err)
	assert.Equal(t, "flat 7", got)

	_, err = r.Resolve("ModelError", "NOPE", Locale{Tag: language.German})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMessageNotFound)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "NOPE", nf.Key)
}

type fakeMessage struct{ key string }

func (f fakeMessage) Error() string        { return "raw " + f.key }
func (f fakeMessage) Kind() string         { return "ModelError" }
func (f fakeMessage) MessageKey() string   { return f.key }
func (f fakeMessage) MessageParams() []any { return []any{"shop.B", "attr"} }

func TestLocalize(t *testing.T) {
	r := testResolver(t)
	wrapped := fmt.Errorf("build: %w", fakeMessage{key: "TOO_MANY_STREAMS"})

	assert.Equal(t, "Typ shop.B hat mehr als einen Stream", r.Localize(wrapped, Locale{Tag: language.German}))
	assert.Equal(t, "raw UNKNOWN", r.Localize(fakeMessage{key: "UNKNOWN"}, Locale{}))
	assert.Equal(t, "plain", r.Localize(errors.New("plain"), Locale{}))
}

func TestLoadCatalogs_Errors(t *testing.T) {
	t.Run("bad locale", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "messages_!!.yaml", "a: b")
		_, err := LoadCatalogs(dir, "messages", language.English)
		assert.Error(t, err)
	})
	t.Run("non text value", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "messages.yaml", "ModelError:\n  KEY: [1, 2]\n")
		_, err := LoadCatalogs(dir, "messages", language.English)
		assert.ErrorContains(t, err, "ModelError.KEY")
	})
	t.Run("missing dir", func(t *testing.T) {
		_, err := LoadCatalogs(filepath.Join(t.TempDir(), "nope"), "messages", language.English)
		assert.Error(t, err)
	})
}

func TestParseAcceptLanguage(t *testing.T) {
	tags := ParseAcceptLanguage("fr-CH, fr;q=0.9, en;q=0.8, de;q=0.7")
	require.Len(t, tags, 4)
	assert.Equal(t, language.MustParse("fr-CH"), tags[0])
	assert.Equal(t, language.German, tags[3])

	assert.Nil(t, ParseAcceptLanguage(""))
}
