package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// BodyLimit returns middleware that limits the maximum request body size.
// defaultLimit applies to most endpoints; reconcileLimit applies to ledger
// reconciliation uploads, which carry a patient's entire exported ledger
// and can be much larger than ordinary API bodies.
//
// Limits are human-readable strings: "1M", "512K", "10M". Supported
// suffixes are K, M, and G; a bare number is bytes.
func BodyLimit(defaultLimit string, reconcileLimit string) echo.MiddlewareFunc {
	defaultBytes := parseLimit(defaultLimit)
	reconcileBytes := parseLimit(reconcileLimit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Body == nil || c.Request().Body == http.NoBody {
				return next(c)
			}

			limit := defaultBytes
			if c.Request().Method == http.MethodPost &&
				strings.HasSuffix(c.Request().URL.Path, "/reconcile") {
				limit = reconcileBytes
			}

			// Content-Length gives an early rejection when present.
			if c.Request().ContentLength > limit {
				return payloadTooLargeError(c, limit)
			}

			// The limiting reader enforces the cap even when Content-Length
			// is missing or wrong.
			c.Request().Body = &limitedReadCloser{
				ReadCloser: c.Request().Body,
				remaining:  limit,
				limit:      limit,
			}

			return next(c)
		}
	}
}

// limitedReadCloser wraps an io.ReadCloser and returns an error once the
// read limit is exceeded.
type limitedReadCloser struct {
	io.ReadCloser
	remaining int64
	limit     int64
	exceeded  bool
}

func (r *limitedReadCloser) Read(p []byte) (n int, err error) {
	if r.exceeded {
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}

	// Read at most remaining+1 so overflow is detectable.
	toRead := int64(len(p))
	if toRead > r.remaining+1 {
		toRead = r.remaining + 1
	}

	n, err = r.ReadCloser.Read(p[:toRead])
	r.remaining -= int64(n)

	if r.remaining < 0 {
		r.exceeded = true
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}

	return n, err
}

func payloadTooLargeError(c echo.Context, limit int64) error {
	return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
		"error": fmt.Sprintf("request body exceeds maximum allowed size of %d bytes", limit),
	})
}

// parseLimit parses a human-readable size string into bytes, defaulting to
// 1 MB when the string cannot be parsed.
func parseLimit(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1 << 20
	}

	s = strings.ToUpper(s)
	var multiplier int64 = 1

	if strings.HasSuffix(s, "G") || strings.HasSuffix(s, "GB") {
		multiplier = 1 << 30
		s = strings.TrimRight(s, "GB")
	} else if strings.HasSuffix(s, "M") || strings.HasSuffix(s, "MB") {
		multiplier = 1 << 20
		s = strings.TrimRight(s, "MB")
	} else if strings.HasSuffix(s, "K") || strings.HasSuffix(s, "KB") {
		multiplier = 1 << 10
		s = strings.TrimRight(s, "KB")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 1 << 20
	}

	return n * multiplier
}
