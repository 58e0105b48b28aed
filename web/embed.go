// Package web embeds the built frontend (dist/) and serves it as a
// single-page application.
//
// dist/ ships with a placeholder index; the frontend build pipeline
// overwrites it. In development run the Vite dev server against the API
// instead.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed all:dist
var distFS embed.FS

// SPAHandler returns an http.Handler over the embedded frontend. Paths that
// match a built file are served directly; everything else falls back to
// index.html so client-side routes like /roteiro and /ideias resolve.
func SPAHandler() http.Handler {
	subFS, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}

	fileServer := http.FileServer(http.FS(subFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		if f, err := subFS.Open(path); err == nil {
			f.Close()
			// Vite emits content-hashed asset names, safe to cache hard.
			if strings.HasPrefix(path, "assets/") {
				w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			}
			fileServer.ServeHTTP(w, r)
			return
		}

		// Unknown path: client-side route. Serve index.html, never cached so
		// deploys take effect immediately.
		w.Header().Set("Cache-Control", "no-cache")
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}
