// internal/handlers/common.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/middleware"
	"github.com/prodcare/prodcare-backend/internal/services"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

func actorFrom(c *gin.Context) services.Actor {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		return services.Actor{}
	}
	return services.Actor{Email: account.Email, Role: account.Role}
}

// bindJSON decodes the request body, writing the error response itself when
// decoding fails. Field validation is left to the services.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

// bindIDList reads a JSON array of ids from field of the body. Anything that
// is not an array of integers is INVALID_PARAMETERS.
func bindIDList(c *gin.Context, field string) ([]int64, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.BadRequestResponse(c, i18n.KeyInvalidParameters)
		return nil, false
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		utils.BadRequestResponse(c, i18n.KeyInvalidParameters)
		return nil, false
	}
	var ids []int64
	value, ok := raw[field]
	if !ok || json.Unmarshal(value, &ids) != nil || ids == nil {
		utils.BadRequestResponse(c, i18n.KeyInvalidParameters)
		return nil, false
	}
	return ids, true
}

// pathID parses a positive id route parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.BadRequestResponse(c, i18n.KeyInvalidParameters)
		return 0, false
	}
	return id, true
}

func queryInt64(c *gin.Context, name string) int64 {
	v, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

func queryBool(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v := strings.EqualFold(raw, "true")
	return &v
}

// queryDay parses a date filter. A bare date is widened to the start or the
// end of that day.
func queryDay(c *gin.Context, name string, endOfDay bool) *time.Time {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	t, err := utils.ParseFlexTime(raw)
	if err != nil {
		return nil
	}
	if endOfDay && len(raw) == len("2006-01-02") {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}
