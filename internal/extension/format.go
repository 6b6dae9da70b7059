package extension

// PixelFormatBGRA32 names the single pixel format every supported
// video format description uses, per spec.md §6.
const PixelFormatBGRA32 = "BGRA8"

// VideoFormat is one entry in the extension's supported-format table,
// enumerated at extension load per spec.md §6.
type VideoFormat struct {
	Width       int
	Height      int
	FrameRate   int
	PixelFormat string
}

// SupportedFormats is the fixed table spec.md §6 requires the
// extension to enumerate at load.
var SupportedFormats = []VideoFormat{
	{Width: 1920, Height: 1080, FrameRate: 30, PixelFormat: PixelFormatBGRA32},
	{Width: 1920, Height: 1080, FrameRate: 60, PixelFormat: PixelFormatBGRA32},
	{Width: 1280, Height: 720, FrameRate: 30, PixelFormat: PixelFormatBGRA32},
	{Width: 1280, Height: 720, FrameRate: 60, PixelFormat: PixelFormatBGRA32},
	{Width: 640, Height: 480, FrameRate: 30, PixelFormat: PixelFormatBGRA32},
}

// Supports reports whether (width, height, frameRate) matches an
// entry in SupportedFormats.
func Supports(width, height, frameRate int) bool {
	for _, f := range SupportedFormats {
		if f.Width == width && f.Height == height && f.FrameRate == frameRate {
			return true
		}
	}
	return false
}
