package metadata

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"photark/internal/logging"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/photos/a.jpg", true},
		{"/photos/a.JPG", true},
		{"/photos/raw/b.NEF", true},
		{"/photos/raw/c.dng", true},
		{"/photos/d.tiff", true},
		{"/photos/e.png", true},
		{"/photos/f.bmp", true},
		{"/photos/readme.txt", false},
		{"/photos/clip.mp4", false},
		{"/photos/noext", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.path); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDecodeToolOutput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string
		wantErr bool
	}{
		{"batch takes first record", `[{"Make":"Canon"},{"Make":"Nikon"}]`, "Make", false},
		{"single object", `{"Model":"X-T5"}`, "Model", false},
		{"empty batch", `[]`, "", true},
		{"empty output", ``, "", true},
		{"scalar payload", `42`, "", true},
		{"broken json", `[{"Make":`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := decodeToolOutput([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got record %v", rec)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := rec[tt.wantKey]; !ok {
				t.Errorf("decoded record missing key %q: %v", tt.wantKey, rec)
			}
		})
	}
}

func TestCoerceString(t *testing.T) {
	tests := []struct {
		in     any
		want   string
		wantOK bool
	}{
		{"plain", "plain", true},
		{float64(200), "200", true},
		{float64(2.8), "2.8", true},
		{true, "true", true},
		{nil, "", false},
		{[]any{"a", float64(1)}, "a, 1", true},
		{map[string]any{"x": 1}, "<unsupported: map[string]interface {}>", true},
	}
	for _, tt := range tests {
		got, ok := coerceString(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("coerceString(%#v) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNativeExtractorReadsImageDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pixel.png")
	writePNG(t, path, 12, 8)

	e := &NativeExtractor{log: logging.Discard{}}
	meta := e.Extract(context.Background(), path)

	if meta["Image:Width"] != "12" || meta["Image:Height"] != "8" {
		t.Errorf("dimensions not extracted: %v", meta)
	}
	if meta["Image:Format"] != "png" {
		t.Errorf("format not extracted: %v", meta)
	}
}

func TestNativeExtractorNeverFails(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(garbage, []byte("definitely not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := &NativeExtractor{log: logging.Discard{}}

	if meta := e.Extract(context.Background(), garbage); len(meta) != 0 {
		t.Errorf("expected empty map for garbage file, got %v", meta)
	}
	if meta := e.Extract(context.Background(), filepath.Join(dir, "missing.jpg")); len(meta) != 0 {
		t.Errorf("expected empty map for missing file, got %v", meta)
	}
}

// writePNG encodes a w x h PNG at path.
func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}
