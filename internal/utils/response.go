// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prodcare/prodcare-backend/internal/i18n"
)

const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

type ErrorBody struct {
	Result  string      `json:"result"`
	Reason  string      `json:"reason"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse writes {"result":"success"} merged with fields.
func SuccessResponse(c *gin.Context, fields gin.H) {
	body := gin.H{"result": ResultSuccess}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func ListResponse(c *gin.Context, key string, items interface{}, count int, total int64, params PageParams) {
	fields := gin.H{
		key:     items,
		"count": count,
		"total": total,
		"page":  nil,
	}
	if params.Paginate {
		fields["page"] = params.Page
	}
	SuccessResponse(c, fields)
}

func ErrorResponse(c *gin.Context, statusCode int, reason string, details interface{}) {
	c.JSON(statusCode, ErrorBody{
		Result:  ResultFailed,
		Reason:  reason,
		Details: details,
	})
}

func BadRequestResponse(c *gin.Context, key string) {
	lang := GetLangFromContext(c)
	ErrorResponse(c, http.StatusBadRequest, i18n.T(lang, key), nil)
}

func UnauthorizedResponse(c *gin.Context, key string) {
	lang := GetLangFromContext(c)
	if key == "" {
		key = i18n.KeyAuthRequired
	}
	ErrorResponse(c, http.StatusUnauthorized, i18n.T(lang, key), nil)
}

func ForbiddenResponse(c *gin.Context, key string) {
	lang := GetLangFromContext(c)
	if key == "" {
		key = i18n.KeyPermissionDenied
	}
	ErrorResponse(c, http.StatusForbidden, i18n.T(lang, key), nil)
}

func InternalErrorResponse(c *gin.Context) {
	lang := GetLangFromContext(c)
	ErrorResponse(c, http.StatusInternalServerError, i18n.T(lang, i18n.KeyInternal), nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, message, errors)
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return i18n.DefaultLang
}

func GetEmailFromContext(c *gin.Context) (string, bool) {
	if email, exists := c.Get("email"); exists {
		if emailStr, ok := email.(string); ok && emailStr != "" {
			return emailStr, true
		}
	}
	return "", false
}

func GetRoleFromContext(c *gin.Context) (string, bool) {
	if role, exists := c.Get("role"); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr, true
		}
	}
	return "", false
}
