package router

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mememage/mememage/internal/handler"
)

// noListingFS hides directories so http.FileServer never renders an index.
type noListingFS struct {
	fs http.FileSystem
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

func fileServer(dir string) http.Handler {
	return http.FileServer(noListingFS{fs: http.Dir(dir)})
}

// spaHandler serves built front-end assets, falling back to index.html
// for client-side routes. API paths never fall back.
type spaHandler struct {
	dir   string
	files http.Handler
}

func newSPAHandler(dir string) *spaHandler {
	if dir == "" {
		return nil
	}
	if info, err := os.Stat(filepath.Join(dir, "index.html")); err != nil || info.IsDir() {
		return nil
	}
	return &spaHandler{dir: dir, files: fileServer(dir)}
}

func (s *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		handler.MethodNotAllowed(w, r)
		return
	}
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/uploads/") {
		handler.NotFound(w, r)
		return
	}

	if s.isFile(path.Clean("/" + r.URL.Path)) {
		s.files.ServeHTTP(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.dir, "index.html"))
}

func (s *spaHandler) isFile(name string) bool {
	if name == "/" || name == "/index.html" {
		return false
	}
	info, err := os.Stat(filepath.Join(s.dir, filepath.FromSlash(name)))
	return err == nil && !info.IsDir()
}
