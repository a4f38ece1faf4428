package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/tripjournal/store"
	"github.com/cppla/tripjournal/utils"
	"github.com/cppla/tripjournal/validation"
)

// respondError maps service errors onto the JSON envelope. Infrastructure failures
// are logged with the request path and answered with an opaque message.
func respondError(ctx *gin.Context, op string, err error) {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		utils.ErrorWithData(ctx, http.StatusBadRequest, 40001, "validation failed", gin.H{"errors": ve.Fields})
	case errors.Is(err, store.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
	default:
		utils.Sugar.Errorw(op+" failed", "method", ctx.Request.Method, "path", ctx.Request.URL.Path, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal server error")
	}
}

// writeResult is the metrics label for the outcome of a write.
func writeResult(err error) string {
	var ve *validation.Error
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "invalid"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// cachedJSON serves the success envelope of load from the public cache, filling it on a miss.
func cachedJSON(ctx *gin.Context, key string, load func() (interface{}, error)) {
	if b, ok := utils.CacheGetBytes(key); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}
	data, err := load()
	if err != nil {
		respondError(ctx, "load "+strings.TrimPrefix(key, utils.PublicCachePrefix), err)
		return
	}
	utils.CacheSetJSON(key, utils.JSONResponse{Code: 0, Message: "success", Data: data}, 0)
	utils.Success(ctx, data)
}

// queryInt parses an integer query parameter, returning def when absent and ok=false when malformed.
func queryInt(ctx *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(ctx.Query(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
