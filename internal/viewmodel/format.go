package viewmodel

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatFileSize renders a byte count with base-1024 units and at most two
// decimals, e.g. 1536 -> "1.5 KB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[unit]
}

var typesByExtension = map[string]string{}

func init() {
	groups := map[string][]string{
		"image":    {"jpg", "jpeg", "png", "gif", "bmp", "svg"},
		"pdf":      {"pdf"},
		"document": {"doc", "docx", "xls", "xlsx", "ppt", "pptx", "csv"},
		"text":     {"txt", "log", "md"},
		"code":     {"js", "jsx", "ts", "tsx", "html", "css", "java", "py", "c", "cpp", "sql", "json"},
		"video":    {"mp4", "avi", "mov", "wmv", "flv", "mkv"},
		"audio":    {"mp3", "wav", "ogg", "flac"},
		"archive":  {"zip", "rar", "7z", "tar", "gz"},
	}
	for fileType, exts := range groups {
		for _, ext := range exts {
			typesByExtension[ext] = fileType
		}
	}
}

// DetectFileType classifies a file by its extension. Unknown extensions are documents.
func DetectFileType(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if t, ok := typesByExtension[ext]; ok {
		return t
	}
	return "document"
}
