// Package config provides TOML configuration loading for the
// anonymization pipeline.
//
// The configuration file supports the following structure:
//
//	[camera]
//	device_id = 0
//	width = 1280
//	height = 720
//	fps = 30
//
//	[mask]
//	enabled = true
//	style = "helmet"
//	pixelate = false
//	pixel_size = 0.03
//	debug = false
//
//	[ring]
//	path = "/tmp/anoncam.ring"
//	buffer_count = 3
//
//	[extension]
//	provider_id = "com.anoncam.provider"
//
// Example usage:
//
//	cfg, err := config.Load("config.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Camera device: %d\n", cfg.Camera.DeviceID)
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the complete configuration for the pipeline.
type Config struct {
	Camera    CameraConfig    `toml:"camera"`
	Mask      MaskConfig      `toml:"mask"`
	Ring      RingConfig      `toml:"ring"`
	Extension ExtensionConfig `toml:"extension"`
}

// CameraConfig holds capture device settings.
type CameraConfig struct {
	// DeviceID is the camera device index (default: 0).
	DeviceID int `toml:"device_id"`
	// Width is the capture width in pixels (default: 1280).
	Width int `toml:"width"`
	// Height is the capture height in pixels (default: 720).
	Height int `toml:"height"`
	// FPS is the target frame rate; spec.md §4.5 targets 30 or 60
	// depending on the active format (default: 30).
	FPS int `toml:"fps"`
	// Mirror flips the captured frame horizontally.
	Mirror bool `toml:"mirror"`
}

// MaskConfig holds compositor overlay settings.
type MaskConfig struct {
	// Enabled turns the mask overlay on or off.
	Enabled bool `toml:"enabled"`
	// Style names one of the canonical MaskGeometry variants:
	// "helmet", "ellipsoid", "lowpoly", "disc", "quad", "facemesh".
	Style string `toml:"style"`
	// Sticker bypasses 3D head-pose placement for a flat overlay
	// sized to the face bounding box (spec.md §4.3's sticker mode),
	// instead of the pose-tracked 3D mask.
	Sticker bool `toml:"sticker"`
	// Pixelate enables the background pixelation substage.
	Pixelate bool `toml:"pixelate"`
	// PixelSize is the pixelation grid cell size in UV space
	// (default: 0.03, per spec.md §4.4).
	PixelSize float64 `toml:"pixel_size"`
	// Scale is the head-relative scale factor for the 3D mask
	// (default: 1.33, per spec.md §4.3).
	Scale float64 `toml:"scale"`
	// Debug enables the bbox/axis overlay described in spec.md §4.4.
	Debug bool `toml:"debug"`
}

// RingConfig holds shared-memory ring buffer settings.
type RingConfig struct {
	// Path is the backing file for the shared memory region.
	Path string `toml:"path"`
	// BufferCount is the number of triple-buffer slots (default: 3).
	BufferCount int `toml:"buffer_count"`
}

// ExtensionConfig holds the identity the virtual-camera extension
// advertises, per spec.md §6.
type ExtensionConfig struct {
	ProviderID string `toml:"provider_id"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			DeviceID: 0,
			Width:    1280,
			Height:   720,
			FPS:      30,
			Mirror:   false,
		},
		Mask: MaskConfig{
			Enabled:   true,
			Style:     "helmet",
			Sticker:   false,
			Pixelate:  false,
			PixelSize: 0.03,
			Scale:     1.33,
			Debug:     false,
		},
		Ring: RingConfig{
			Path:        "/tmp/anoncam.ring",
			BufferCount: 3,
		},
		Extension: ExtensionConfig{
			ProviderID: "com.anoncam.provider",
		},
	}
}

// Load reads and parses a TOML configuration file.
// If the file does not exist, it returns the default configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Camera.Width <= 0 {
		return fmt.Errorf("camera width must be positive, got %d", c.Camera.Width)
	}
	if c.Camera.Height <= 0 {
		return fmt.Errorf("camera height must be positive, got %d", c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera FPS must be positive, got %d", c.Camera.FPS)
	}
	if c.Mask.PixelSize < 0 || c.Mask.PixelSize > 1 {
		return fmt.Errorf("mask pixel_size must be between 0 and 1, got %f", c.Mask.PixelSize)
	}
	if c.Mask.Scale <= 0 {
		return fmt.Errorf("mask scale must be positive, got %f", c.Mask.Scale)
	}
	if c.Ring.BufferCount < 2 {
		return fmt.Errorf("ring buffer_count must be at least 2, got %d", c.Ring.BufferCount)
	}
	if c.Extension.ProviderID == "" {
		return fmt.Errorf("extension provider_id must not be empty")
	}
	return nil
}
