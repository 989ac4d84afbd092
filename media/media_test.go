package media

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/docstory/model"
)

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 128})
	path := filepath.Join(dir, "image1.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return path
}

func TestDimensions(t *testing.T) {
	path := writePNG(t, t.TempDir(), 40, 30)
	dims, err := Dimensions(path)
	if err != nil {
		t.Fatalf("Dimensions() error: %v", err)
	}
	if dims.Width != 40 || dims.Height != 30 {
		t.Errorf("Dimensions() = %+v, want 40x30", dims)
	}
}

func TestDimensions_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.png")
	os.WriteFile(path, []byte("not an image"), 0o644)
	if _, err := Dimensions(path); err == nil {
		t.Error("expected error for garbage data")
	}
}

func TestCopyUnique(t *testing.T) {
	src := writePNG(t, t.TempDir(), 2, 2)
	dir := filepath.Join(t.TempDir(), "media")

	a, err := CopyUnique(src, dir)
	if err != nil {
		t.Fatalf("CopyUnique() error: %v", err)
	}
	b, err := CopyUnique(src, dir)
	if err != nil {
		t.Fatalf("CopyUnique() error: %v", err)
	}
	if a == b {
		t.Error("copies should have distinct names")
	}
	if !strings.HasSuffix(a, "_image1.png") {
		t.Errorf("copy name %q should keep the original base name", a)
	}
	if _, err := os.Stat(a); err != nil {
		t.Errorf("copy missing: %v", err)
	}
}

func TestToJPEG(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, 12, 8)
	dst := filepath.Join(dir, "cover.jpg")
	dims, err := ToJPEG(src, dst)
	if err != nil {
		t.Fatalf("ToJPEG() error: %v", err)
	}
	if dims.Width != 12 || dims.Height != 8 {
		t.Errorf("dims = %+v", dims)
	}
	got, err := Dimensions(dst)
	if err != nil {
		t.Fatal(err)
	}
	if got != dims {
		t.Errorf("jpeg dims = %+v, want %+v", got, dims)
	}
}

func TestContentType(t *testing.T) {
	if ContentType("a.PNG") != "image/png" || ContentType("b.jpeg") != "image/jpeg" {
		t.Error("unexpected content type")
	}
	if ContentType("c.emf") != "application/octet-stream" {
		t.Error("unknown extension should be octet-stream")
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wrapped bool
		want    model.Display
	}{
		{"wide", 1920, 1080, false, model.DisplayWide},
		{"wide beats wrap", 1920, 1080, true, model.DisplayWide},
		{"large four by three", 1600, 1200, false, model.DisplayStandard},
		{"small", 640, 480, false, model.DisplayFloat},
		{"wrapped", 1000, 800, true, model.DisplayFloat},
		{"unknown size", 0, 0, false, model.DisplayFloat},
		{"boundary width", 800, 600, false, model.DisplayStandard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Display(tt.w, tt.h, tt.wrapped); got != tt.want {
				t.Errorf("Display(%d, %d, %v) = %s, want %s", tt.w, tt.h, tt.wrapped, got, tt.want)
			}
		})
	}
}
