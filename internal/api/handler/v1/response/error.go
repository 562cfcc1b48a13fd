package response

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Err is the JSON envelope every non-2xx response uses. Code is a stable
// machine-readable identifier; Msg is for humans.
type Err struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Msg        string `json:"msg"`
}

func (e *Err) Error() string {
	return e.Msg
}

func RenderErr(ctx *gin.Context, err *Err) {
	if err.StatusCode >= http.StatusInternalServerError {
		zap.L().Error("server error",
			zap.String("request_id", requestid.Get(ctx)),
			zap.Int("status", err.StatusCode),
			zap.String("code", err.Code),
			zap.String("msg", err.Msg),
		)
	}

	ctx.AbortWithStatusJSON(err.StatusCode, err)
}

func ErrBadRequest(err error) *Err {
	return &Err{
		StatusCode: http.StatusBadRequest,
		Code:       "BadRequest",
		Msg:        err.Error(),
	}
}

func ErrUnauthorized(msg string) *Err {
	return &Err{
		StatusCode: http.StatusUnauthorized,
		Code:       "Unauthorized",
		Msg:        msg,
	}
}

func ErrWrongCredentials(err error) *Err {
	return &Err{
		StatusCode: http.StatusUnauthorized,
		Code:       "WrongCredentials",
		Msg:        err.Error(),
	}
}

func ErrPermissionDenied(msg string) *Err {
	return &Err{
		StatusCode: http.StatusForbidden,
		Code:       "PermissionDenied",
		Msg:        msg,
	}
}

func ErrNotFound(err error) *Err {
	return &Err{
		StatusCode: http.StatusNotFound,
		Code:       "NotFound",
		Msg:        err.Error(),
	}
}

func ErrInternalServerError(err error) *Err {
	return &Err{
		StatusCode: http.StatusInternalServerError,
		Code:       "InternalServerError",
		Msg:        err.Error(),
	}
}

// Join/leave conflicts each carry their own code so clients can branch
// without parsing messages.

func ErrOfferingNotFound(err error) *Err {
	return &Err{
		StatusCode: http.StatusNotFound,
		Code:       "OfferingNotFound",
		Msg:        err.Error(),
	}
}

func ErrOfferingFull(err error) *Err {
	return &Err{
		StatusCode: http.StatusConflict,
		Code:       "OfferingFull",
		Msg:        err.Error(),
	}
}

func ErrOfferingNotJoinable(err error) *Err {
	return &Err{
		StatusCode: http.StatusConflict,
		Code:       "OfferingNotJoinable",
		Msg:        err.Error(),
	}
}

func ErrAlreadyJoined(err error) *Err {
	return &Err{
		StatusCode: http.StatusConflict,
		Code:       "AlreadyJoined",
		Msg:        err.Error(),
	}
}

func ErrNotJoined(err error) *Err {
	return &Err{
		StatusCode: http.StatusConflict,
		Code:       "NotJoined",
		Msg:        err.Error(),
	}
}

func ErrOfferingBusy(err error) *Err {
	return &Err{
		StatusCode: http.StatusServiceUnavailable,
		Code:       "OfferingBusy",
		Msg:        err.Error(),
	}
}

func ErrTooManyRequests(msg string) *Err {
	return &Err{
		StatusCode: http.StatusTooManyRequests,
		Code:       "TooManyRequests",
		Msg:        msg,
	}
}
