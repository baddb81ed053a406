package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/remotefs"
)

//go:embed templates/*.html
var templateFS embed.FS

var kindIcons = map[remotefs.Kind]string{
	remotefs.KindDir:       "\U0001F4C1",
	remotefs.KindFile:      "\U0001F4C4",
	remotefs.KindShare:     "\U0001F5C4",
	remotefs.KindPrinter:   "\U0001F5A8",
	remotefs.KindWorkgroup: "\U0001F310",
	remotefs.KindServer:    "\U0001F5A5",
	remotefs.KindPipe:      "\u2502",
	remotefs.KindComm:      "\u260E",
}

var templateFuncs = template.FuncMap{
	"getLink": GetLink,
	"bytes": func(n int64) string {
		if n < 0 {
			return ""
		}
		return humanize.IBytes(uint64(n))
	},
	"ago": func(t time.Time) string { return humanize.Time(t) },
	"icon": func(k remotefs.Kind) string {
		if icon, ok := kindIcons[k]; ok {
			return icon
		}
		return "?"
	},
	"linkable": func(k remotefs.Kind) bool {
		return k == remotefs.KindFile || k.IsContainer()
	},
}

// pages holds one template set per page so each can define "content".
type pages map[string]*template.Template

func loadPages() (pages, error) {
	p := make(pages)
	for _, name := range []string{"index", "directory"} {
		t, err := template.New(name).Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p[name] = t
	}
	return p, nil
}

// render executes the page into a buffer first so a template error can
// still produce a 500.
func (p pages) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := p[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.ErrorCtx(r.Context(), "Template rendering failed", "template", name, logger.Err(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GetLink returns the server path that opens target.
func GetLink(target string) string {
	return "/get/" + remotefs.EscapePath(target)
}
