// Package server exposes card artifacts over HTTP and the catalog query
// tools over the Model Context Protocol.
package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/harulab/cardforge/logger"
)

// CardsMountPath is where the artifact cache is mounted on the HTTP server
const CardsMountPath = "/cards"

// BuildCardURL builds the public URL of a cached artifact. The payload key
// is escaped as a single path segment since it routinely contains colons and
// non-ASCII text.
func BuildCardURL(baseURL, template, payloadKey, format string) string {
	return strings.TrimRight(baseURL, "/") +
		CardsMountPath + "/" + template + "/" + url.PathEscape(payloadKey) + "/artifact." + format
}

// NewMux builds the HTTP mux serving the artifact cache directory under
// /cards plus a liveness endpoint
func NewMux(cacheRoot string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(CardsMountPath+"/", http.StripPrefix(CardsMountPath+"/",
		http.FileServer(http.Dir(cacheRoot))))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// ListenAndServe runs the artifact file server until the listener fails
func ListenAndServe(addr, cacheRoot string) error {
	logger.Infow("serving card artifacts", "addr", addr, "mount", CardsMountPath, "root", cacheRoot)
	return http.ListenAndServe(addr, NewMux(cacheRoot))
}
