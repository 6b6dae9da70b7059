package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Camera.DeviceID != 0 {
		t.Errorf("expected DeviceID 0, got %d", cfg.Camera.DeviceID)
	}
	if cfg.Camera.Width != 1280 {
		t.Errorf("expected Width 1280, got %d", cfg.Camera.Width)
	}
	if cfg.Camera.Height != 720 {
		t.Errorf("expected Height 720, got %d", cfg.Camera.Height)
	}
	if cfg.Camera.FPS != 30 {
		t.Errorf("expected FPS 30, got %d", cfg.Camera.FPS)
	}
	if !cfg.Mask.Enabled {
		t.Error("expected Mask.Enabled to be true")
	}
	if cfg.Mask.Style != "helmet" {
		t.Errorf("expected Style helmet, got %s", cfg.Mask.Style)
	}
	if cfg.Mask.PixelSize != 0.03 {
		t.Errorf("expected PixelSize 0.03, got %f", cfg.Mask.PixelSize)
	}
	if cfg.Ring.BufferCount != 3 {
		t.Errorf("expected BufferCount 3, got %d", cfg.Ring.BufferCount)
	}
	if cfg.Extension.ProviderID == "" {
		t.Error("expected non-empty ProviderID")
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error for non-existent file: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config for non-existent file")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	content := `
[camera]
device_id = 1
width = 1920
height = 1080
fps = 60
mirror = true

[mask]
enabled = false
style = "disc"
sticker = true
pixelate = true
pixel_size = 0.1
scale = 1.5
debug = true

[ring]
path = "/tmp/custom.ring"
buffer_count = 4

[extension]
provider_id = "com.example.custom"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Camera.DeviceID != 1 {
		t.Errorf("expected DeviceID 1, got %d", cfg.Camera.DeviceID)
	}
	if cfg.Camera.Width != 1920 {
		t.Errorf("expected Width 1920, got %d", cfg.Camera.Width)
	}
	if cfg.Camera.FPS != 60 {
		t.Errorf("expected FPS 60, got %d", cfg.Camera.FPS)
	}
	if cfg.Mask.Enabled {
		t.Error("expected Mask.Enabled to be false")
	}
	if cfg.Mask.Style != "disc" {
		t.Errorf("expected Style disc, got %s", cfg.Mask.Style)
	}
	if !cfg.Mask.Sticker {
		t.Error("expected Mask.Sticker to be true")
	}
	if cfg.Mask.PixelSize != 0.1 {
		t.Errorf("expected PixelSize 0.1, got %f", cfg.Mask.PixelSize)
	}
	if cfg.Ring.BufferCount != 4 {
		t.Errorf("expected BufferCount 4, got %d", cfg.Ring.BufferCount)
	}
	if cfg.Extension.ProviderID != "com.example.custom" {
		t.Errorf("expected provider_id com.example.custom, got %s", cfg.Extension.ProviderID)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invalid.toml")
	if err := os.WriteFile(path, []byte("invalid [ toml"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestValidate_InvalidWidth(t *testing.T) {
	cfg := Default()
	cfg.Camera.Width = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid width")
	}
}

func TestValidate_InvalidHeight(t *testing.T) {
	cfg := Default()
	cfg.Camera.Height = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid height")
	}
}

func TestValidate_InvalidFPS(t *testing.T) {
	cfg := Default()
	cfg.Camera.FPS = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid FPS")
	}
}

func TestValidate_InvalidPixelSize(t *testing.T) {
	cfg := Default()
	cfg.Mask.PixelSize = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for pixel_size > 1")
	}

	cfg.Mask.PixelSize = -0.1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for pixel_size < 0")
	}
}

func TestValidate_InvalidBufferCount(t *testing.T) {
	cfg := Default()
	cfg.Ring.BufferCount = 1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for buffer_count < 2")
	}
}

func TestValidate_EmptyProviderID(t *testing.T) {
	cfg := Default()
	cfg.Extension.ProviderID = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty provider_id")
	}
}
