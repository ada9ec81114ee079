package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/edm"
	"github.com/DenJur/olingo-jpa-processor-v4/internal/i18n"
)

const codeInternal = "INTERNAL"

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor: ненайденный тип даёт 404, неизвестный путь в запросе 400,
// прочие ошибки модели 500 (схема на сервере несогласована).
func statusFor(err error) (int, string) {
	var me *edm.ModelError
	if !errors.As(err, &me) {
		return http.StatusInternalServerError, codeInternal
	}
	switch me.Key {
	case edm.KeyTypeNotFound:
		return http.StatusNotFound, string(me.Key)
	case edm.KeyPathNotFound, edm.KeyPropertyNotFound:
		return http.StatusBadRequest, string(me.Key)
	default:
		return http.StatusInternalServerError, string(me.Key)
	}
}

func (s *Server) renderError(c *gin.Context, err error, loc i18n.Locale) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorw("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, errorBody{
		Error:   code,
		Message: s.messages.Localize(err, loc),
	})
}
