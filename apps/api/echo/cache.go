package echoapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Every mutation invalidates the detail of the student, the list and the history.
// Reads may be served from a client cache for at most the configured max age.
const (
	invalidateHeader   = "X-Invalidate"
	headerCacheControl = "Cache-Control"

	cacheKeyDetail  = "students:detail:%d"
	cacheKeyList    = "students:list"
	cacheKeyHistory = "students:history"
)

func invalidatedKeys(id int) []string {
	return []string{fmt.Sprintf(cacheKeyDetail, id), cacheKeyList, cacheKeyHistory}
}

// markInvalidated must be called before the response is written.
func markInvalidated(ctx echo.Context, id int) {
	ctx.Response().Header().Set(invalidateHeader, strings.Join(invalidatedKeys(id), ", "))
}

// cacheMiddleware lets clients reuse successful read responses for maxAge.
func cacheMiddleware(maxAge time.Duration) echo.MiddlewareFunc {
	value := fmt.Sprintf("private, max-age=%d", int(maxAge.Seconds()))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Response().Header()
			header.Set(headerCacheControl, value)
			if err := next(ctx); err != nil {
				header.Del(headerCacheControl)
				return err
			}
			return nil
		}
	}
}
