package content

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/marmos91/sharegate/pkg/remotefs"
)

// ContentDisposition returns an inline Content-Disposition value for name.
// The ASCII fallback replaces characters that cannot appear in a quoted
// string; the filename* parameter carries the exact name percent-encoded.
func ContentDisposition(name string) string {
	var fallback strings.Builder
	for _, r := range name {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' || r == '%' {
			fallback.WriteByte('_')
			continue
		}
		fallback.WriteRune(r)
	}
	return `inline; filename="` + fallback.String() + `"; filename*=UTF-8''` + remotefs.EscapePath(name)
}

// LastModified formats t as an HTTP date in UTC.
func LastModified(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// setCommonHeaders sets the headers shared by full and partial responses.
func setCommonHeaders(h http.Header, f remotefs.File, contentType string) {
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", ContentDisposition(f.Name()))
	h.Set("Accept-Ranges", "bytes")
	if mt := f.ModTime(); !mt.IsZero() {
		h.Set("Last-Modified", LastModified(mt))
	}
}

func formatLength(n int64) string {
	return strconv.FormatInt(n, 10)
}
