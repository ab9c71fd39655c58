package api

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/maksimkurb/openwrt-monitor/src/internal/log"
)

// JSONContentType rejects request bodies that are not JSON.
func JSONContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				WriteInvalidRequest(w, "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Logger logs every request with its chi request ID.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Debugf("[%s] %s %s - %d (%v)", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, status, time.Since(start))
	})
}

// Recovery turns a handler panic into a 500 response.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Errorf("Panic recovered in %s %s: %v", r.Method, r.URL.Path, rec)
				WriteInternalError(w, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CORS allows browser dashboards on other origins to read the API.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PrivateSubnetOnly rejects clients outside loopback, link-local and private ranges.
// The API can then bind to 0.0.0.0 without exposing router actions publicly.
func PrivateSubnetOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr, err := clientAddr(r)
		if err != nil {
			log.Warnf("Invalid client address %q: %v", r.RemoteAddr, err)
			WriteForbidden(w, "Access denied")
			return
		}
		if !isPrivate(addr) {
			log.Warnf("Access denied from non-private address %s", addr)
			WriteForbidden(w, "Access denied: only private networks are allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr prefers the first X-Forwarded-For hop, then X-Real-IP, then RemoteAddr.
func clientAddr(r *http.Request) (netip.Addr, error) {
	raw := ""
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		raw = strings.TrimSpace(strings.Split(fwd, ",")[0])
	} else if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		raw = strings.TrimSpace(realIP)
	} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		raw = host
	} else {
		raw = r.RemoteAddr
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, err
	}
	return addr.Unmap(), nil
}

func isPrivate(addr netip.Addr) bool {
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()
}
