package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AssetServer serves the uploads tree (originals plus the compressed/
// and thumbs/ subdirectories) under the given route prefix.
// example usage in main.go:
//
//	r.Get("/uploads/*", AssetServer(cfg.UploadsPath, "/uploads/"))
func AssetServer(uploadsPath, routePrefix string) http.HandlerFunc {
	baseDir := filepath.Clean(uploadsPath)

	return func(w http.ResponseWriter, r *http.Request) {
		// e.g. for route /uploads/* and request /uploads/thumbs/a.jpg,
		// extract "thumbs/a.jpg"
		relativePath := strings.TrimPrefix(r.URL.Path, routePrefix)

		if relativePath == "" || strings.Contains(relativePath, "..") {
			http.Error(w, "Invalid asset path", http.StatusBadRequest)
			return
		}

		assetPath := filepath.Clean(filepath.Join(baseDir, relativePath))
		if !strings.HasPrefix(assetPath, baseDir+string(filepath.Separator)) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		info, err := os.Stat(assetPath)
		if os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		} else if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if info.IsDir() {
			http.NotFound(w, r)
			return
		}

		cacheDuration := 24 * time.Hour
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheDuration.Seconds())))
		w.Header().Set("Expires", time.Now().Add(cacheDuration).Format(http.TimeFormat))

		http.ServeFile(w, r, assetPath)
	}
}
