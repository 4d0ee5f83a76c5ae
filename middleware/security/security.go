// Package security define os headers de segurança aplicados a todas as respostas.
//
// Os valores seguem os padrões do helmet, sem Content-Security-Policy e sem
// Cross-Origin-Embedder-Policy (a página /docs carrega scripts de CDN).
package security

import (
	"net/http"
	"net/textproto"
	"strings"
)

var defaultHeaders = [][2]string{
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"Origin-Agent-Cluster", "?1"},
	{"Referrer-Policy", "no-referrer"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-DNS-Prefetch-Control", "off"},
	{"X-Download-Options", "noopen"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"X-Permitted-Cross-Domain-Policies", "none"},
	{"X-XSS-Protection", "0"},
}

type config struct {
	headers [][2]string
}

type Option func(*config)

// WithHeader define (ou sobrescreve) um header.
func WithHeader(name, value string) Option {
	return func(c *config) {
		name = textproto.CanonicalMIMEHeaderKey(name)
		for i := range c.headers {
			if c.headers[i][0] == name {
				c.headers[i][1] = value
				return
			}
		}
		c.headers = append(c.headers, [2]string{name, value})
	}
}

// WithoutHeader remove um dos headers padrão.
func WithoutHeader(name string) Option {
	return func(c *config) {
		out := c.headers[:0]
		for _, h := range c.headers {
			if !strings.EqualFold(h[0], name) {
				out = append(out, h)
			}
		}
		c.headers = out
	}
}

// Headers devolve os headers efetivos, na ordem em que são aplicados.
func Headers(opts ...Option) [][2]string {
	c := config{headers: append([][2]string(nil), defaultHeaders...)}
	for _, opt := range opts {
		opt(&c)
	}
	return c.headers
}

func Middleware(opts ...Option) func(next http.Handler) http.Handler {
	headers := Headers(opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range headers {
				h.Set(kv[0], kv[1])
			}
			h.Del("X-Powered-By")
			next.ServeHTTP(w, r)
		})
	}
}
