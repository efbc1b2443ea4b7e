package controllers

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gomc/website/listing"
)

const defaultPageLength = 20

// bindOptionalJSON binds a JSON body into req; an empty body keeps req as is.
func bindOptionalJSON(ctx *gin.Context, req interface{}) error {
	if ctx.Request.Body == nil || ctx.Request.ContentLength == 0 {
		return nil
	}
	if err := ctx.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func defaultPage() listing.Page {
	return listing.Page{Index: 0, Length: defaultPageLength}
}

func queryUint(ctx *gin.Context, key string) (uint, bool) {
	n, err := strconv.ParseUint(ctx.Query(key), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
