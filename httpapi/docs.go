package httpapi

import (
	_ "embed"
	"net/http"
)

var (
	//go:embed assets/openapi.json
	openAPIDoc []byte
	//go:embed assets/docs.html
	docsPage []byte
	//go:embed assets/index.html
	landingPage []byte
)

func serveBytes(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}
}
