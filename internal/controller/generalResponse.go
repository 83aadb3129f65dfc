package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
)

// The devnet gateway answers every call with
// {
//   "ok": result
// }
// or
// {
//   "err": { "code": "~CODE~", "msg": "message" }
// }

// ErrorBody is the `err` part of a failed response.
type ErrorBody struct {
	Code string `json:"code"` // 错误码，例如 ~FORBIDDEN~，未分类的错误为空
	Msg  string `json:"msg"`  // 错误描述
}

func respondOk(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, gin.H{"ok": result})
}

func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%v %v 处理失败: %+v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		log.Debugf("%v %v 被拒绝: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	c.AbortWithStatusJSON(status, gin.H{"err": ErrorBody{Code: errorcode.CodeOf(err), Msg: err.Error()}})
}

func respondParameterErrors(c *gin.Context, pel ParameterErrorList) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"err": ErrorBody{
		Code: errorcode.CodeBadRequest,
		Msg:  strings.Join(pel, " ") + " " + errorcode.CodeBadRequest,
	}})
}

// statusOf maps the predefined errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errorcode.ErrorAccessNotPropagated):
		return http.StatusConflict
	case errors.Is(err, errorcode.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, errorcode.ErrorSessionExpired), errors.Is(err, errorcode.ErrorSessionRevoked), errors.Is(err, errorcode.ErrorBadSignature):
		return http.StatusUnauthorized
	case errors.Is(err, errorcode.ErrorBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errorcode.ErrorInvalidHandle), errors.Is(err, errorcode.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, errorcode.ErrorNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
