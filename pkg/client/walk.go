package client

import (
	"io/fs"
	"path/filepath"
)

// walkFiles recursively lists every regular file under root.
func walkFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			return ierr
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, &FileSystemError{Op: "walk", Path: root, Err: err}
	}
	return files, nil
}
