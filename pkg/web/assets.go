package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"

	assetfs "github.com/elazarl/go-bindata-assetfs"
)

//go:embed static/*
var staticFS embed.FS

// assets exposes the embedded static directory as an http.FileSystem
func assets() *assetfs.AssetFS {
	return &assetfs.AssetFS{
		Asset: staticFS.ReadFile,
		AssetDir: func(name string) ([]string, error) {
			entries, err := staticFS.ReadDir(name)
			if err != nil {
				return nil, err
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name())
			}
			return names, nil
		},
		AssetInfo: func(name string) (os.FileInfo, error) {
			return fs.Stat(staticFS, name)
		},
		Prefix: "static",
	}
}

// staticHandler serves files under /static/
func staticHandler() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(assets()))
}
