package site

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mssola/useragent"

	"github.com/okian/hackreg/pkg/metrics"
)

// Supported reports whether the browser identified by ua can run the site.
// Internet Explorer and Safari before 7.1 are not supported.
func Supported(ua string) bool {
	if ua == "" {
		return true
	}
	name, version := useragent.New(ua).Browser()
	switch name {
	case "Internet Explorer":
		return false
	case "Safari":
		major, minor := parseVersion(version)
		return major > 7 || (major == 7 && minor >= 1)
	default:
		return true
	}
}

// parseVersion reads the leading major and minor numbers of v.
func parseVersion(v string) (int, int) {
	parts := strings.SplitN(v, ".", 3)
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0
	}
	minor := 0
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	return major, minor
}

// UnsupportedBrowser answers requests from unsupported browsers with the
// unsupported page.
func (s *Server) UnsupportedBrowser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Supported(r.UserAgent()) {
			next.ServeHTTP(w, r)
			return
		}
		metrics.RecordUnsupportedBrowser()
		s.render(w, r, http.StatusOK, "unsupported.html", "Unsupported browser", nil)
	})
}
