package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// EnsureUploadDir creates the uploads directory if it doesn't exist
func EnsureUploadDir() error {
	return os.MkdirAll("uploads", os.ModePerm)
}

// SaveFile saves the uploaded file to the given destination path
func SaveFile(fileHeader *multipart.FileHeader, destPath string) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, file)
	return err
}

// GetUploadPath returns the full path for a file inside the uploads directory
func GetUploadPath(filename string) string {
	return filepath.Join("uploads", filename)
}

// ObjectKey builds a blob object key like "avatars/alice-1a2b3c4d.png":
// a slugged human-readable name plus a random suffix so two uploads with the
// same name never collide.
func ObjectKey(prefix, name, originalFilename string) string {
	base := slug.Make(name)
	if base == "" {
		base = "file"
	}
	suffix := uuid.NewString()[:8]
	ext := filepath.Ext(originalFilename)
	return fmt.Sprintf("%s/%s-%s%s", prefix, base, suffix, ext)
}
