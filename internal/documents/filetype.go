package documents

import (
	"path/filepath"
	"strings"
)

// FileType identifies the kind of uploaded file. It drives which extraction
// chain the worker runs.
type FileType string

const (
	FileTypePDF          FileType = "pdf"
	FileTypePNG          FileType = "png"
	FileTypeJPG          FileType = "jpg"
	FileTypeTXT          FileType = "txt"
	FileTypeNotSpecified FileType = "not_specified"
)

// FileTypeFromName maps a file name extension to a FileType. Unknown
// extensions map to FileTypeNotSpecified, never an error.
func FileTypeFromName(name string) FileType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "pdf":
		return FileTypePDF
	case "png":
		return FileTypePNG
	case "jpg", "jpeg":
		return FileTypeJPG
	case "txt":
		return FileTypeTXT
	default:
		return FileTypeNotSpecified
	}
}

// IsImage reports whether the file type goes through the OCR path directly.
func (t FileType) IsImage() bool {
	return t == FileTypePNG || t == FileTypeJPG
}
