package content

import (
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultContentType is served when a file name maps to no known type.
const DefaultContentType = "application/octet-stream"

// builtinTypes covers the media a file share typically holds. It is
// consulted before the platform table so results do not depend on the
// host's mime.types files.
var builtinTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".ts":   "video/mp2t",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".srt":  "application/x-subrip",
	".vtt":  "text/vtt",
	".txt":  "text/plain",
	".log":  "text/plain",
	".nfo":  "text/plain",
	".ini":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".zip":  "application/zip",
	".7z":   "application/x-7z-compressed",
	".iso":  "application/x-iso9660-image",
	".json": "application/json",
}

// MimeResolver maps file names to Content-Type values by extension.
// Lookup order: configured overrides, the built-in table, the platform
// table, then the fallback type.
type MimeResolver struct {
	overrides map[string]string
	fallback  string
}

// NewMimeResolver builds a resolver. Override keys may be given with or
// without the leading dot and in any case. An empty fallback means
// DefaultContentType.
func NewMimeResolver(overrides map[string]string, fallback string) *MimeResolver {
	m := &MimeResolver{
		overrides: make(map[string]string, len(overrides)),
		fallback:  fallback,
	}
	if m.fallback == "" {
		m.fallback = DefaultContentType
	}
	for ext, typ := range overrides {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || typ == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m.overrides[ext] = typ
	}
	return m
}

// Resolve returns the Content-Type for name. Plain text always carries
// charset=utf-8.
func (m *MimeResolver) Resolve(name string) string {
	if typ, ok := m.Lookup(name); ok {
		return typ
	}
	return m.fallback
}

// Lookup is Resolve without the fallback: ok is false when the extension
// is unknown.
func (m *MimeResolver) Lookup(name string) (string, bool) {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" || ext == "." {
		return "", false
	}

	typ, ok := m.overrides[ext]
	if !ok {
		typ, ok = builtinTypes[ext]
	}
	if !ok {
		typ = mime.TypeByExtension(ext)
	}
	if typ == "" {
		return "", false
	}
	return withCharset(typ), true
}

// Sniff detects the type of a file from its first bytes. Content that
// matches nothing more specific than binary yields the fallback.
func (m *MimeResolver) Sniff(head []byte) string {
	detected := mimetype.Detect(head)
	if detected.Is(DefaultContentType) {
		return m.fallback
	}
	return withCharset(detected.String())
}

func withCharset(typ string) string {
	mediaType, params, err := mime.ParseMediaType(typ)
	if err != nil || mediaType != "text/plain" {
		return typ
	}
	if _, ok := params["charset"]; ok {
		return typ
	}
	return "text/plain; charset=utf-8"
}
