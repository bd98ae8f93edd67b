package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ecodepin/ecodepin-api/apperrors"
	"github.com/ecodepin/ecodepin-api/middleware"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{Success: true, Message: message, Data: data})
}

// respondError writes the failure envelope. Internal causes stay in the log.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	appErr := apperrors.As(err)
	if appErr.Kind == apperrors.KindInternal {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(appErr))
	}
	middleware.Abort(c, appErr)
}

// bindJSON decodes the request body into req, reporting failures as
// InvalidInput with one message per offending field.
func bindJSON(c *gin.Context, req interface{}) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldMessage(fe))
		}
		return apperrors.Validation("Validation failed", fields)
	}
	return apperrors.InvalidInput("Invalid request body")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func notFound(c *gin.Context) {
	middleware.Abort(c, apperrors.NotFound(fmt.Sprintf("Route not found: %s %s", c.Request.Method, c.Request.URL.Path)))
}

var registerFieldNames sync.Once

// useJSONFieldNames makes validation messages name fields as clients send them.
func useJSONFieldNames() {
	registerFieldNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
