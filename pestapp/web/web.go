package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
)

// FS 페이지 템플릿과 정적 파일
//
//go:embed templates assets
var FS embed.FS

// Templates 페이지 템플릿 로드
func Templates() (*template.Template, error) {
	return template.ParseFS(FS, "templates/*.html")
}

type assetFS struct {
	http.FileSystem
}

// Exists prefix 아래의 일반 파일만 제공
func (a assetFS) Exists(prefix string, name string) bool {
	p := strings.TrimPrefix(name, prefix)
	if len(p) == len(name) {
		return false
	}

	f, err := a.Open(p)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	return err == nil && !info.IsDir()
}

// Assets 정적 파일
func Assets() (static.ServeFileSystem, error) {
	sub, err := fs.Sub(FS, "assets")
	if err != nil {
		return nil, err
	}

	return assetFS{http.FS(sub)}, nil
}
