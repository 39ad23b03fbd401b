// Package metadata extracts and sanitizes embedded metadata from image files.
//
// The preferred strategy shells out to exiftool, which understands every
// RAW dialect worth caring about. When exiftool is not on PATH the package
// degrades to built-in parsers (goexif plus image header decoding), which
// cover far fewer tags but keep the scanner functional.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"photark/internal/logging"
)

// Extractor pulls a flat string-keyed metadata map from an image file.
// Extract never fails: on any internal error it returns a possibly-empty
// map and reports a warning through the logger. A file with no extractable
// metadata is still recorded, just with an empty map.
type Extractor interface {
	Extract(ctx context.Context, path string) map[string]string
}

// New probes for exiftool and returns the richest extractor available in
// this runtime environment.
func New(log logging.Logger) Extractor {
	if bin, err := exec.LookPath("exiftool"); err == nil {
		return &ToolExtractor{log: log, bin: bin}
	}
	return &NativeExtractor{log: log}
}

// ToolExtractor extracts metadata by invoking exiftool.
type ToolExtractor struct {
	log logging.Logger
	bin string
}

// Extract runs exiftool against path and flattens its JSON output. The
// subprocess is scoped to this call: CommandContext kills it if ctx is
// cancelled mid-extraction.
func (e *ToolExtractor) Extract(ctx context.Context, path string) map[string]string {
	cmd := exec.CommandContext(ctx, e.bin, "-json", "-quiet", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		e.log.Log(logging.LevelWarn, "exiftool extraction failed", path, map[string]any{
			"error":  err.Error(),
			"stderr": strings.TrimSpace(stderr.String()),
		})
		return map[string]string{}
	}

	record, err := decodeToolOutput(stdout.Bytes())
	if err != nil {
		e.log.Log(logging.LevelWarn, "exiftool produced undecodable output", path, map[string]any{
			"error": err.Error(),
		})
		return map[string]string{}
	}

	meta := make(map[string]string, len(record))
	for key, value := range record {
		if key == "SourceFile" {
			continue
		}
		s, ok := coerceString(value)
		if !ok {
			continue
		}
		// exiftool renders binary-valued tags as "(Binary data N bytes...)";
		// those are dropped rather than stored.
		if strings.HasPrefix(s, "(Binary data") {
			continue
		}
		meta[key] = s
	}
	return meta
}

// decodeToolOutput resolves the shapes exiftool output can take: a batch
// array (take the first record), a single object, or anything else
// (rejected).
func decodeToolOutput(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty output")
	}

	switch trimmed[0] {
	case '[':
		var batch []map[string]any
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return nil, errors.New("empty result batch")
		}
		return batch[0], nil
	case '{':
		var single map[string]any
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, err
		}
		return single, nil
	default:
		return nil, fmt.Errorf("unexpected payload shape starting with %q", trimmed[0])
	}
}

// coerceString converts a decoded JSON value to its stored string form.
// Nested objects get a marker naming the unsupported type; nulls are
// dropped (ok=false).
func coerceString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := coerceString(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), true
	default:
		return fmt.Sprintf("<unsupported: %T>", v), true
	}
}
