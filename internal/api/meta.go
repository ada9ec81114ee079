package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/csdl"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/edm"
)

// ===== META HANDLERS =====

// MetadataHandler: GET /api/$metadata: вся схема, JSON или XML (Edmx).
func (s *Server) MetadataHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := parseMetaParams(c.Request.URL.Query(), c.GetHeader("Accept-Language"))
		etag := `"` + s.version + `"`
		if matchesETag(c.GetHeader("If-None-Match"), etag) {
			c.Header("ETag", etag)
			c.Status(http.StatusNotModified)
			return
		}

		item, err := s.schema.EdmItem()
		if err != nil {
			s.renderError(c, err, params.Locale)
			return
		}
		c.Header("ETag", etag)
		if params.Format == formatXML {
			c.XML(http.StatusOK, csdl.Document(item))
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func matchesETag(header, etag string) bool {
	for _, v := range strings.Split(header, ",") {
		v = strings.TrimPrefix(strings.TrimSpace(v), "W/")
		if v == "*" || v == etag {
			return true
		}
	}
	return false
}

type metaEntityListItem struct {
	Name      string `json:"name"`
	FQN       string `json:"fqn"`
	EntitySet string `json:"entitySet,omitempty"`
	Table     string `json:"table,omitempty"`
	Abstract  bool   `json:"abstract,omitempty"`
	Base      string `json:"base,omitempty"`
}

// MetaListHandler: GET /api/meta: сущности схемы по внешнему имени.
func (s *Server) MetaListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := parseMetaParams(c.Request.URL.Query(), c.GetHeader("Accept-Language"))
		ets := s.schema.EntityTypes()
		out := make([]metaEntityListItem, 0, len(ets))
		for _, et := range ets {
			if et.Ignored() {
				continue
			}
			base, err := et.BaseType()
			if err != nil {
				s.renderError(c, err, params.Locale)
				return
			}
			item := metaEntityListItem{
				Name:     et.ExternalName(),
				FQN:      et.Name(),
				Abstract: et.Abstract(),
			}
			if !et.Abstract() {
				item.EntitySet = et.EntitySetName()
				item.Table = et.TableName()
			}
			if base != nil {
				item.Base = base.ExternalName()
			}
			out = append(out, item)
		}
		c.JSON(http.StatusOK, out)
	}
}

type metaKey struct {
	Name    string `json:"name"`
	DBField string `json:"dbField"`
}

type metaPath struct {
	Alias   string `json:"alias"`
	DBField string `json:"dbField"`
}

type metaStream struct {
	Path            string `json:"path"`
	ContentType     string `json:"contentType,omitempty"`
	ContentTypePath string `json:"contentTypePath,omitempty"`
}

type metaEntity struct {
	Name       string           `json:"name"`
	FQN        string           `json:"fqn"`
	EntitySet  string           `json:"entitySet,omitempty"`
	Table      string           `json:"table,omitempty"`
	Keys       []metaKey        `json:"keys"`
	KeyPaths   []string         `json:"keyPaths"`
	HasEtag    bool             `json:"hasEtag"`
	Stream     *metaStream      `json:"stream,omitempty"`
	Searchable []string         `json:"searchable,omitempty"`
	Paths      []metaPath       `json:"paths"`
	Type       *csdl.EntityType `json:"type"`
}

// MetaEntityHandler: GET /api/meta/:entity: дескриптор и производные сведения.
func (s *Server) MetaEntityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := parseMetaParams(c.Request.URL.Query(), c.GetHeader("Accept-Language"))
		et, err := s.lookupEntity(c.Param("entity"))
		if err != nil {
			s.renderError(c, err, params.Locale)
			return
		}
		out, err := describeEntity(et)
		if err != nil {
			s.renderError(c, err, params.Locale)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func describeEntity(et *edm.EntityType) (*metaEntity, error) {
	item, err := et.EdmItem()
	if err != nil {
		return nil, err
	}
	out := &metaEntity{
		Name: et.ExternalName(),
		FQN:  et.Name(),
		Type: item,
	}
	if !et.Abstract() {
		out.EntitySet = et.EntitySetName()
		out.Table = et.TableName()
	}

	keys, err := et.Key()
	if err != nil {
		return nil, err
	}
	out.Keys = make([]metaKey, 0, len(keys))
	for _, k := range keys {
		out.Keys = append(out.Keys, metaKey{Name: k.ExternalName(), DBField: k.DBFieldName()})
	}
	keyPaths, err := et.KeyPath()
	if err != nil {
		return nil, err
	}
	out.KeyPaths = aliases(keyPaths)

	if out.HasEtag, err = et.HasEtag(); err != nil {
		return nil, err
	}
	if out.Stream, err = describeStream(et); err != nil {
		return nil, err
	}

	searchable, err := et.SearchablePath()
	if err != nil {
		return nil, err
	}
	out.Searchable = aliases(searchable)

	paths, err := et.PathList()
	if err != nil {
		return nil, err
	}
	out.Paths = describePaths(paths)
	return out, nil
}

func describeStream(et *edm.EntityType) (*metaStream, error) {
	has, err := et.HasStream()
	if err != nil || !has {
		return nil, err
	}
	sp, err := et.StreamAttributePath()
	if err != nil {
		return nil, err
	}
	ct, err := et.ContentType()
	if err != nil {
		return nil, err
	}
	out := &metaStream{Path: sp.Alias(), ContentType: ct}
	cp, err := et.ContentTypeAttributePath()
	if err != nil {
		return nil, err
	}
	if cp != nil {
		out.ContentTypePath = cp.Alias()
	}
	return out, nil
}

type metaSelectItem struct {
	Select string     `json:"select"`
	Paths  []metaPath `json:"paths"`
}

// SelectHandler: GET /api/meta/:entity/select?$select=a,b/c: каждый выбранный
// алиас раскрывается до листьев; без $select отдаются все пути сущности.
func (s *Server) SelectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := parseMetaParams(c.Request.URL.Query(), c.GetHeader("Accept-Language"))
		et, err := s.lookupEntity(c.Param("entity"))
		if err != nil {
			s.renderError(c, err, params.Locale)
			return
		}

		if len(params.Select) == 0 {
			all, err := et.PathList()
			if err != nil {
				s.renderError(c, err, params.Locale)
				return
			}
			c.JSON(http.StatusOK, []metaSelectItem{{Select: "*", Paths: describePaths(all)}})
			return
		}

		out := make([]metaSelectItem, 0, len(params.Select))
		for _, alias := range params.Select {
			p, err := et.Path(alias)
			if err != nil {
				s.renderError(c, err, params.Locale)
				return
			}
			children, err := et.SearchChildPath(p)
			if err != nil {
				s.renderError(c, err, params.Locale)
				return
			}
			out = append(out, metaSelectItem{Select: alias, Paths: describePaths(children)})
		}
		c.JSON(http.StatusOK, out)
	}
}

func aliases(paths []*edm.Path) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, p.Alias())
	}
	return out
}

func describePaths(paths []*edm.Path) []metaPath {
	out := make([]metaPath, 0, len(paths))
	for _, p := range paths {
		out = append(out, metaPath{Alias: p.Alias(), DBField: p.DBFieldName()})
	}
	return out
}
