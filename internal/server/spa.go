package server

import (
	"net/http"
	"path/filepath"
)

// handleSPA serves the built web client from dir. Paths that do not
// match a real file fall back to index.html so client-side routes
// survive a reload.
func handleSPA(dir string) http.HandlerFunc {
	root := http.Dir(dir)
	fileServer := http.FileServer(root)

	return func(w http.ResponseWriter, r *http.Request) {
		f, err := root.Open(filepath.Clean(r.URL.Path))
		if err == nil {
			info, statErr := f.Stat()
			f.Close()
			if statErr == nil && !info.IsDir() {
				fileServer.ServeHTTP(w, r)
				return
			}
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
