package metadata

import (
	"path/filepath"
	"strings"
)

// supportedExts is the set of file extensions the scanner indexes: camera
// RAW formats plus JPEG, TIFF, PNG and BMP. Comparison is case-insensitive.
var supportedExts = map[string]bool{
	// RAW
	".dng": true, ".arw": true, ".cr2": true, ".cr3": true, ".nef": true,
	".raf": true, ".orf": true, ".rw2": true, ".srw": true, ".x3f": true,
	// JPEG
	".jpg": true, ".jpeg": true,
	// TIFF
	".tif": true, ".tiff": true,
	// Other
	".png": true, ".bmp": true,
}

// Supported reports whether path has an extension the scanner indexes.
// Files that fail this check are silently skipped, not errors.
func Supported(path string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}
