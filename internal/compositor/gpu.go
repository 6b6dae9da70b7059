package compositor

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/anoncam/core/internal/model"
)

// GPU is the production Renderer: it drives ebiten's Kage shader
// pipeline to draw the background quad and mask overlay described in
// spec.md §4.4, then reads the result back into a pooled BGRA8 pixel
// buffer for the ring producer and preview callback.
type GPU struct {
	mu sync.Mutex

	width, height int

	backgroundShader *ebiten.Shader
	maskShader       *ebiten.Shader

	cameraTex *ebiten.Image
	maskTex   *ebiten.Image
	target    *ebiten.Image
	pool      *bufferPool
	lastBuf   []byte
}

// NewGPU compiles the two Kage shaders and allocates the render
// targets for the given initial resolution. A shader compile failure
// here is a configuration error per spec.md §7: the caller should
// treat it as a startup failure, not a per-frame one.
func NewGPU(width, height int) (*GPU, error) {
	bg, err := ebiten.NewShader([]byte(backgroundKage))
	if err != nil {
		return nil, fmt.Errorf("compositor: compile background shader: %w", err)
	}
	mask, err := ebiten.NewShader([]byte(maskKage))
	if err != nil {
		return nil, fmt.Errorf("compositor: compile mask shader: %w", err)
	}

	g := &GPU{backgroundShader: bg, maskShader: mask}
	g.rebuild(width, height)
	return g, nil
}

func (g *GPU) rebuild(width, height int) {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	g.width, g.height = width, height
	g.cameraTex = ebiten.NewImage(width, height)
	g.target = ebiten.NewImage(width, height)
	g.pool = newBufferPool(width, height)
	g.lastBuf = nil
}

// Resize tears down and rebuilds the render targets and pool, per
// spec.md §4.4's resizing contract.
func (g *GPU) Resize(width, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if width == g.width && height == g.height {
		return
	}
	g.rebuild(width, height)
}

// Close drops the renderer's GPU-backed images; ebiten images are
// garbage-collected, so this only releases the Go-side references.
func (g *GPU) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cameraTex = nil
	g.target = nil
	g.maskTex = nil
}

// Render implements the two-stage pass against the GPU shader
// pipeline: background quad, then (if a face is present and the mask
// is enabled) the pose-locked overlay.
func (g *GPU) Render(in Input) (model.Frame, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if in.Frame.Width != g.width || in.Frame.Height != g.height {
		g.rebuild(in.Frame.Width, in.Frame.Height)
	}

	g.target.Clear()
	g.uploadCamera(in.Frame)
	g.drawBackground(in)

	if in.Observation.Present && in.Settings.MaskEnabled {
		g.uploadMaskTexture(in.MaskTexture)
		g.drawMask(in)
	}

	if in.Settings.Debug {
		drawDebugOverlay2(g, in)
	}

	// The previous frame's buffer has been copied into the ring slot,
	// and the preview callback was handed its own copy, by the time
	// the next Render runs, so it's safe to return it to the pool here
	// rather than threading a completion signal back from the pipeline.
	if g.lastBuf != nil {
		g.pool.release(g.lastBuf)
		g.lastBuf = nil
	}

	buf, exhausted := g.pool.acquire()
	rgba := make([]byte, len(buf))
	g.target.ReadPixels(rgba)
	rgbaToBGRA(rgba, buf)
	g.lastBuf = buf

	out := model.Frame{
		Width:       g.width,
		Height:      g.height,
		Stride:      g.width * 4,
		Pixels:      buf,
		TimestampNS: in.Frame.TimestampNS,
	}
	if exhausted {
		return out, ErrPoolExhausted
	}
	return out, nil
}

func (g *GPU) uploadCamera(f model.Frame) {
	rgba := bgraToRGBA(f.Pixels)
	g.cameraTex.WritePixels(rgba)
}

func (g *GPU) uploadMaskTexture(tex *model.Frame) {
	if tex == nil || tex.Width == 0 || tex.Height == 0 {
		g.maskTex = nil
		return
	}
	if g.maskTex == nil || g.maskTex.Bounds().Dx() != tex.Width || g.maskTex.Bounds().Dy() != tex.Height {
		g.maskTex = ebiten.NewImage(tex.Width, tex.Height)
	}
	g.maskTex.WritePixels(bgraToRGBA(tex.Pixels))
}

func (g *GPU) drawBackground(in Input) {
	hasFace := 0.0
	if in.Observation.Present {
		hasFace = 1.0
	}
	pixelSize := 0.0
	if in.Settings.PixelSize > 0 {
		pixelSize = in.Settings.PixelSize
	}

	opts := &ebiten.DrawRectShaderOptions{}
	opts.Images[0] = g.cameraTex
	opts.Uniforms = map[string]any{
		"BBox":      [4]float32{float32(in.Observation.BBox.X), float32(in.Observation.BBox.Y), float32(in.Observation.BBox.W), float32(in.Observation.BBox.H)},
		"PixelSize": float32(pixelSize),
		"HasFace":   float32(hasFace),
		"Gamma":     float32(backgroundGamma),
	}
	g.target.DrawRectShader(g.width, g.height, g.backgroundShader, opts)
}

// drawMask builds the mask's vertex buffer (screen position + an
// encoded world-space normal used by the shader for lighting) and
// submits it as a single DrawTrianglesShader call.
func (g *GPU) drawMask(in Input) {
	geom := in.Geometry
	if !geom.Valid() || len(geom.Vertices) == 0 {
		return
	}

	worldPos := make([]vec3, len(geom.Vertices))
	screenPos := make([][2]float32, len(geom.Vertices))
	for i, v := range geom.Vertices {
		world := mulVec4(in.Pose.ModelMatrix, [4]float64{v.X, v.Y, v.Z, 1})
		clip := mulVec4(in.ViewProj, world)
		ndcX, ndcY := clip[0], clip[1]
		if clip[3] != 0 {
			ndcX /= clip[3]
			ndcY /= clip[3]
		}
		worldPos[i] = vec3{world[0], world[1], world[2]}
		screenPos[i] = [2]float32{
			float32((ndcX + 1) / 2 * float64(g.width)),
			float32((1 - (ndcY+1)/2) * float64(g.height)),
		}
	}

	vertices := make([]ebiten.Vertex, len(geom.Vertices))
	for i := range geom.Vertices {
		n := vertexNormal(geom, worldPos, i)
		vertices[i] = ebiten.Vertex{
			DstX:   screenPos[i][0],
			DstY:   screenPos[i][1],
			SrcX:   float32(geom.UVs[i].X),
			SrcY:   float32(geom.UVs[i].Y),
			ColorR: float32(n.X*0.5 + 0.5),
			ColorG: float32(n.Y*0.5 + 0.5),
			ColorB: float32(n.Z*0.5 + 0.5),
			ColorA: 1,
		}
	}

	sticker := 0.0
	if in.Settings.Sticker {
		sticker = 1.0
	}
	hasTexture := 0.0
	if g.maskTex != nil {
		hasTexture = 1.0
	}

	srcImg := g.maskTex
	if srcImg == nil {
		srcImg = whitePixel()
	}

	opts := &ebiten.DrawTrianglesShaderOptions{}
	opts.Images[0] = srcImg
	opts.Uniforms = map[string]any{
		"LightA":     [3]float32{float32(lightA.X), float32(lightA.Y), float32(lightA.Z)},
		"LightB":     [3]float32{float32(lightB.X), float32(lightB.Y), float32(lightB.Z)},
		"Sticker":    float32(sticker),
		"Time":       float32(float64(in.Frame.TimestampNS%1_000_000_000) / 1_000_000_000 * 2 * 3.14159265),
		"HasTexture": float32(hasTexture),
	}
	g.target.DrawTrianglesShader(vertices, geom.Indices, g.maskShader, opts)
}

// vertexNormal approximates a per-vertex normal as the average of the
// face normals of triangles incident to it; adequate for the smooth
// canonical helmet/ellipsoid meshes where this is exact up to
// tessellation error.
func vertexNormal(geom model.MaskGeometry, world []vec3, idx int) vec3 {
	var sum vec3
	count := 0
	tris := len(geom.Indices) / 3
	for t := 0; t < tris; t++ {
		i0, i1, i2 := int(geom.Indices[t*3]), int(geom.Indices[t*3+1]), int(geom.Indices[t*3+2])
		if i0 != idx && i1 != idx && i2 != idx {
			continue
		}
		n := normalize3(cross3(sub3(world[i1], world[i0]), sub3(world[i2], world[i0])))
		sum = vec3{sum.X + n.X, sum.Y + n.Y, sum.Z + n.Z}
		count++
	}
	if count == 0 {
		return vec3{0, 0, 1}
	}
	return normalize3(vec3{sum.X / float64(count), sum.Y / float64(count), sum.Z / float64(count)})
}

var (
	whitePixelOnce sync.Once
	whitePixelImg  *ebiten.Image
)

func whitePixel() *ebiten.Image {
	whitePixelOnce.Do(func() {
		whitePixelImg = ebiten.NewImage(1, 1)
		whitePixelImg.Fill(color.White)
	})
	return whitePixelImg
}

// bgraToRGBA and rgbaToBGRA swap the red/blue channels between the
// ring's wire format (BGRA8, per spec.md §3) and ebiten's image
// format (RGBA, straight alpha).
func bgraToRGBA(src []byte) []byte {
	out := make([]byte, len(src))
	for i := 0; i+3 < len(src); i += 4 {
		out[i] = src[i+2]
		out[i+1] = src[i+1]
		out[i+2] = src[i]
		out[i+3] = src[i+3]
	}
	return out
}

func rgbaToBGRA(src, dst []byte) {
	for i := 0; i+3 < len(src) && i+3 < len(dst); i += 4 {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
		dst[i+3] = src[i+3]
	}
}

// drawDebugOverlay2 composes the debug bbox/axis overlay onto the GPU
// target by rendering it on a CPU-side scratch frame and blitting the
// result back in, avoiding a third shader pass for a rarely-used
// developer mode.
func drawDebugOverlay2(g *GPU, in Input) {
	scratch := model.Frame{Width: g.width, Height: g.height, Stride: g.width * 4, Pixels: make([]byte, g.width*g.height*4)}
	g.target.ReadPixels(scratch.Pixels)
	bgra := make([]byte, len(scratch.Pixels))
	rgbaToBGRA(scratch.Pixels, bgra)
	scratch.Pixels = bgra
	drawDebugOverlay(scratch, in)
	g.cameraTex.WritePixels(bgraToRGBA(scratch.Pixels))
	opts := &ebiten.DrawImageOptions{}
	g.target.Clear()
	g.target.DrawImage(g.cameraTex, opts)
}
