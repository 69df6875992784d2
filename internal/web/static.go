package web

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"
)

//go:embed docs/api.md
var apiReference []byte

var referencePage = template.Must(template.New("reference").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Abacus</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
{{.}}
</body>
</html>
`))

// staticHandler serves the prebuilt frontend bundle. Existing files are
// served as-is; every other path gets index.html so client-side routing
// works. Without a bundle, a rendered API reference stands in for
// index.html.
type staticHandler struct {
	dir      string
	fallback []byte
	started  time.Time
}

func newStaticHandler(dir string) *staticHandler {
	return &staticHandler{
		dir:      dir,
		fallback: renderReference(),
		started:  time.Now(),
	}
}

// renderReference converts the embedded API reference to an HTML page.
func renderReference() []byte {
	var body bytes.Buffer
	if err := goldmark.Convert(apiReference, &body); err != nil {
		body.Reset()
		body.WriteString("<pre>" + template.HTMLEscapeString(string(apiReference)) + "</pre>")
	}

	var page bytes.Buffer
	_ = referencePage.Execute(&page, template.HTML(body.String()))
	return page.Bytes()
}

func (s *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if s.dir != "" {
		// Clean against "/" so ".." can never climb out of dir
		name := path.Clean("/" + r.URL.Path)
		if name != "/" && s.serveFile(w, r, filepath.Join(s.dir, filepath.FromSlash(name))) {
			return
		}
		if s.serveFile(w, r, filepath.Join(s.dir, "index.html")) {
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", s.started, bytes.NewReader(s.fallback))
}

// serveFile writes the regular file at p and reports whether it existed.
func (s *staticHandler) serveFile(w http.ResponseWriter, r *http.Request, p string) bool {
	f, err := os.Open(p)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
