package metadata

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"sync"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"photark/internal/logging"
)

// fallbackOnce limits the fallback-in-use warning to once per process
// lifetime. Logging it per file would flood a million-file scan.
var fallbackOnce sync.Once

// NativeExtractor is the fallback extraction strategy: a generic goexif
// tag walk (JPEG and the TIFF-based RAW formats) unioned with image header
// dimensions under the "Image:" namespace.
type NativeExtractor struct {
	log logging.Logger
}

// Extract reads whatever the built-in parsers can recover from path.
func (e *NativeExtractor) Extract(ctx context.Context, path string) map[string]string {
	fallbackOnce.Do(func() {
		e.log.Log(logging.LevelWarn,
			"exiftool not found on PATH, falling back to built-in metadata parsers", "", nil)
	})

	meta := map[string]string{}
	if err := ctx.Err(); err != nil {
		return meta
	}

	f, err := os.Open(path)
	if err != nil {
		e.log.Log(logging.LevelWarn, "cannot open file for metadata extraction", path,
			map[string]any{"error": err.Error()})
		return meta
	}
	defer f.Close()

	// goexif handles JPEG and TIFF-based containers. Files without EXIF are
	// normal, not an error.
	if x, err := goexif.Decode(f); err == nil {
		_ = x.Walk(tagCollector(meta))
	}

	if _, err := f.Seek(0, 0); err != nil {
		return meta
	}
	if cfg, format, err := image.DecodeConfig(f); err == nil {
		meta["Image:Width"] = strconv.Itoa(cfg.Width)
		meta["Image:Height"] = strconv.Itoa(cfg.Height)
		meta["Image:Format"] = format
	}

	return meta
}

// tagCollector accumulates every visited EXIF field into a string map.
type tagCollector map[string]string

func (c tagCollector) Walk(name goexif.FieldName, tag *tiff.Tag) error {
	if s, err := tag.StringVal(); err == nil {
		c[string(name)] = s
		return nil
	}
	c[string(name)] = tag.String()
	return nil
}
