package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dargueta/dcp"
)

// splitExtension splits `path` into everything before the extension of its
// last element and the extension itself without the leading dot. Dots in
// directory names are ignored.
func splitExtension(path string) (string, string) {
	extension := filepath.Ext(path)
	if extension == "" || extension == path || strings.HasSuffix(path, string(filepath.Separator)+extension) {
		return path, ""
	}
	return strings.TrimSuffix(path, extension), extension[1:]
}

// freePath returns `stem` + `extension` if nothing exists there, otherwise the
// first of "stem (1)ext", "stem (2)ext", ... that is free. `extension`
// includes its leading dot, or is empty.
func freePath(stem, extension string) (string, error) {
	candidate := stem + extension
	for n := 1; ; n++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, extension)
	}
}

// compressedPath gives the path compressed output for `inputPath` is written
// to.
func compressedPath(inputPath string) (string, error) {
	stem, _ := splitExtension(inputPath)
	return freePath(stem, dcp.FileExtension)
}

// uncompressedPath gives the path decompressed output for `inputPath` is
// written to, using the extension recovered from the compressed data.
func uncompressedPath(inputPath, recordedExtension string) (string, error) {
	stem, _ := splitExtension(inputPath)
	if recordedExtension == "" {
		return freePath(stem, "")
	}
	return freePath(stem, "."+recordedExtension)
}
