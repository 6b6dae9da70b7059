package extension

import "testing"

func TestSupportsKnownFormat(t *testing.T) {
	if !Supports(1920, 1080, 30) {
		t.Error("expected 1920x1080@30 to be supported")
	}
	if !Supports(640, 480, 30) {
		t.Error("expected 640x480@30 to be supported")
	}
}

func TestSupportsRejectsUnknownFormat(t *testing.T) {
	if Supports(3840, 2160, 30) {
		t.Error("expected 4K to be unsupported")
	}
	if Supports(640, 480, 60) {
		t.Error("expected 640x480@60 to be unsupported")
	}
}

func TestSupportedFormatsAreAllBGRA(t *testing.T) {
	for _, f := range SupportedFormats {
		if f.PixelFormat != PixelFormatBGRA32 {
			t.Errorf("format %dx%d@%d has pixel format %q, want %q", f.Width, f.Height, f.FrameRate, f.PixelFormat, PixelFormatBGRA32)
		}
	}
}
