package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin resource sharing.
type CORSConfig struct {
	// AllowOrigins lists the origins allowed to make cross-origin requests.
	// Empty, or a single "*", allows every origin.
	AllowOrigins []string
	// AllowMethods lists the methods permitted in actual requests. Empty
	// falls back to the common verb set.
	AllowMethods []string
	// AllowHeaders lists the request headers clients may send. Empty echoes
	// the preflight's Access-Control-Request-Headers back.
	AllowHeaders []string
	// ExposeHeaders lists response headers scripts may read.
	ExposeHeaders []string
	// AllowCredentials permits cookies and authorization headers. The
	// wildcard origin is invalid with credentials, so specific origins are
	// echoed instead.
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header, negative sends "0".
	MaxAge int
}

// cors is the precomputed middleware state: origin matching is a map lookup
// per request, everything else is a constant header value.
type cors struct {
	wildcard    bool
	origins     map[string]string // lowercase -> configured spelling
	methods     string
	headers     string
	expose      string
	credentials bool
	maxAge      string
}

// CORS returns a middleware handling preflight and actual cross-origin
// requests, including the Vary bookkeeping that keeps shared caches from
// serving one origin's response to another.
func CORS(cfg CORSConfig) Middleware {
	c := &cors{
		wildcard:    len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.wildcard = true
			break
		}
		c.origins[strings.ToLower(o)] = o
	}
	if c.credentials {
		// The CORS spec forbids "*" with credentials.
		c.wildcard = false
	}
	if c.methods == "" {
		c.methods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	}
	switch {
	case cfg.MaxAge > 0:
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		c.maxAge = "0"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Same-origin request, but caches still need to know the
				// response depends on Origin.
				if !c.wildcard {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				c.preflight(w, r, origin)
				return
			}

			c.actual(w, origin)
			next.ServeHTTP(w, r)
		})
	}
}

func (c *cors) allowValue(origin string) string {
	if c.wildcard {
		return "*"
	}
	return c.origins[strings.ToLower(origin)]
}

func (c *cors) preflight(w http.ResponseWriter, r *http.Request, origin string) {
	h := w.Header()
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")

	allow := c.allowValue(origin)
	if allow == "" {
		// Disallowed origin: respond without CORS headers and let the
		// browser block it.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.Set("Access-Control-Allow-Origin", allow)
	h.Set("Access-Control-Allow-Methods", c.methods)
	if c.headers != "" {
		h.Set("Access-Control-Allow-Headers", c.headers)
	} else if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
		h.Set("Access-Control-Allow-Headers", requested)
	}
	if c.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if c.maxAge != "" {
		h.Set("Access-Control-Max-Age", c.maxAge)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *cors) actual(w http.ResponseWriter, origin string) {
	h := w.Header()
	if !c.wildcard {
		h.Add("Vary", "Origin")
	}

	allow := c.allowValue(origin)
	if allow == "" {
		return
	}
	h.Set("Access-Control-Allow-Origin", allow)
	if c.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if c.expose != "" {
		h.Set("Access-Control-Expose-Headers", c.expose)
	}
}
