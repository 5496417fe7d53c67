package routes

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// imageFS serves uploaded files only: directories and dot-files (in-flight
// uploads) are reported as missing, so no listing is ever rendered.
type imageFS struct {
	root http.FileSystem
}

func (f imageFS) Open(name string) (http.File, error) {
	if strings.HasPrefix(path.Base(name), ".") {
		return nil, fs.ErrNotExist
	}
	file, err := f.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
