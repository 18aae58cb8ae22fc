package utils

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/thehouse/forum/config"
)

// GenerateUploadsFilename builds a stored filename from a random 8-char
// token plus the original extension. The token avoids both collisions and
// path traversal through user-supplied names.
func GenerateUploadsFilename(originalName string) string {
	token := uuid.NewString()[:8]
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	return token + ext
}

// SaveToUploads streams src into the uploads directory under filename.
func SaveToUploads(src io.Reader, filename string) error {
	dir := config.Get().UploadsDirectory
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// UploadPath returns the on-disk path for a stored upload.
func UploadPath(filename string) string {
	return filepath.Join(config.Get().UploadsDirectory, filepath.Base(filename))
}

// DeleteUpload removes a stored upload. A file that is already absent is
// logged and swallowed: the soft-delete flag is authoritative, not the
// file's physical presence, and cascades must not abort over it.
func DeleteUpload(filename string) {
	if filename == "" {
		return
	}
	if err := os.Remove(UploadPath(filename)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			Sugar.Debugf("upload already absent: %s", filename)
			return
		}
		Sugar.Warnf("failed to delete upload %s: %v", filename, err)
	}
}
