package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/response"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки, добавленные через c.Error, если
// обработчик сам не записал ответ. Внутренние ошибки маскируются.
func ErrorHandler(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		code := apperror.CodeOf(err)

		entry := log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
		if code == "" || code == apperror.ErrCodeInternal || code == apperror.ErrCodeConfiguration {
			entry.Error("request error")
		} else {
			entry.Debug("request rejected")
		}

		if c.Writer.Written() {
			return
		}
		response.Error(c, err)
	}
}
