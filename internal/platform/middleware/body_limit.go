package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// BodyLimit caps request body sizes. Most endpoints get defaultLimit; writes
// to report endpoints carry full composed result payloads and get the larger
// reportLimit. Limits are strings like "1M", "512K", "2G"; a bare number is
// bytes.
func BodyLimit(defaultLimit, reportLimit string) echo.MiddlewareFunc {
	defaultBytes := parseLimit(defaultLimit)
	reportBytes := parseLimit(reportLimit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}

			limit := defaultBytes
			if req.Method != http.MethodGet && strings.Contains(req.URL.Path, "/report") {
				limit = reportBytes
			}

			// Content-Length gives an early out; the capped reader catches
			// chunked bodies that lie or omit it.
			if req.ContentLength > limit {
				return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
					"error": fmt.Sprintf("request body exceeds maximum allowed size of %d bytes", limit),
				})
			}
			req.Body = &cappedReader{body: req.Body, left: limit}

			return next(c)
		}
	}
}

type cappedReader struct {
	body io.ReadCloser
	left int64
}

func (r *cappedReader) Read(p []byte) (int, error) {
	if r.left < 0 {
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}
	if max := r.left + 1; int64(len(p)) > max {
		p = p[:max]
	}
	n, err := r.body.Read(p)
	r.left -= int64(n)
	if r.left < 0 {
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}
	return n, err
}

func (r *cappedReader) Close() error { return r.body.Close() }

var limitSuffixes = []struct {
	suffix string
	factor int64
}{
	{"GB", 1 << 30}, {"G", 1 << 30},
	{"MB", 1 << 20}, {"M", 1 << 20},
	{"KB", 1 << 10}, {"K", 1 << 10},
}

// parseLimit converts a size string to bytes, falling back to 1 MB on
// anything unparseable.
func parseLimit(s string) int64 {
	const fallback = 1 << 20

	s = strings.ToUpper(strings.TrimSpace(s))
	var factor int64 = 1
	for _, sf := range limitSuffixes {
		if strings.HasSuffix(s, sf.suffix) {
			factor = sf.factor
			s = strings.TrimSuffix(s, sf.suffix)
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	return n * factor
}
