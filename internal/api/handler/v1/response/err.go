package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jerneif/lotto-api/internal/domain"
)

const (
	msgTryAgain      = "another transaction is already in progress, please try again"
	msgContactAdmin  = "please contact the system administrator"
	msgInternalError = "internal server error"
)

type Err struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
	RetryAfter int    `json:"-"`
}

func (e *Err) Error() string {
	if e.Err == nil {
		return e.StatusText
	}

	return e.Err.Error()
}

func (e *Err) Unwrap() error {
	return e.Err
}

func RenderErr(ctx *gin.Context, e *Err) {
	if e.RetryAfter > 0 {
		ctx.Header("Retry-After", fmt.Sprint(e.RetryAfter))
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

func ErrBadRequest(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "bad request",
		ErrorText:      err.Error(),
	}
}

func ErrInvalidUUID(param string) *Err {
	return ErrBadRequest(fmt.Errorf("%s must be a valid UUID", param))
}

func ErrUnauthorized(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusUnauthorized,
		StatusText:     "unauthorized",
		ErrorText:      err.Error(),
	}
}

func ErrPermissionDenied(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusForbidden,
		StatusText:     "permission denied",
		ErrorText:      err.Error(),
	}
}

func ErrTooManyRequests(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusTooManyRequests,
		StatusText:     "busy",
		ErrorText:      msgTryAgain,
		RetryAfter:     1,
	}
}

func ErrInternalServerError(err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "internal server error",
		ErrorText:      msgInternalError,
	}
}

// FromError maps a service error to a response by its kind. Domain messages
// are safe to show; anything else is logged and hidden behind a generic 500.
func FromError(err error, fields ...zap.Field) *Err {
	var de *domain.Error
	if !errors.As(err, &de) {
		zap.L().Error("unexpected error", append(fields, zap.Error(err))...)
		return ErrInternalServerError(err)
	}

	switch de.Kind {
	case domain.KindValidation:
		return &Err{Err: err, HTTPStatusCode: http.StatusBadRequest, StatusText: "bad request", ErrorText: de.Msg}
	case domain.KindNotFound:
		return &Err{Err: err, HTTPStatusCode: http.StatusNotFound, StatusText: "not found", ErrorText: de.Msg}
	case domain.KindConflict:
		return &Err{Err: err, HTTPStatusCode: http.StatusConflict, StatusText: "conflict", ErrorText: de.Msg}
	case domain.KindContention:
		return ErrTooManyRequests(err)
	case domain.KindFatal:
		zap.L().Error("fatal lottery error", append(fields, zap.Error(err))...)
		return &Err{
			Err:            err,
			HTTPStatusCode: http.StatusInternalServerError,
			StatusText:     "internal server error",
			ErrorText:      de.Msg + ", " + msgContactAdmin,
		}
	default:
		zap.L().Error("unclassified domain error", append(fields, zap.Error(err))...)
		return ErrInternalServerError(err)
	}
}
