package api

import (
	"io"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/edm"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/i18n"
)

// Server отдаёт готовую схему; после создания ничего не меняет.
type Server struct {
	schema   *edm.Schema
	messages *i18n.Resolver
	log      *zap.SugaredLogger

	// версия $metadata-документа, она же ETag
	version string
}

// NewServer ожидает уже финализированную схему.
func NewServer(schema *edm.Schema, messages *i18n.Resolver, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if messages == nil {
		messages = i18n.NewResolver(language.English, nil, logger)
	}
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Server{
		schema:   schema,
		messages: messages,
		log:      logger,
		version:  newVersion(time.Now(), ulid.Monotonic(src, 0)),
	}
}

func newVersion(t time.Time, entropy io.Reader) string {
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Version: ULID-штамп схемы; меняется при каждом старте сервера.
func (s *Server) Version() string { return s.version }
