package compositor

// backgroundKage is the Kage source for the background quad pass,
// spec.md §4.4 sub-stage 1: it samples the camera texture and, inside
// the face bbox with pixelation enabled, snaps the UV to a grid before
// sampling. Uniforms are set per-draw from internal/compositor/gpu.go.
const backgroundKage = `
//kage:unit pixels

package main

var BBox vec4     // x, y, w, h in normalized UV space
var PixelSize float
var HasFace float // 0 or 1
var Gamma float

func applyGamma(c vec3) vec3 {
	return vec3(pow(c.r, Gamma), pow(c.g, Gamma), pow(c.b, Gamma))
}

func insideBBox(uv vec2) bool {
	return uv.x >= BBox.x && uv.x <= BBox.x+BBox.z && uv.y >= BBox.y && uv.y <= BBox.y+BBox.w
}

func Fragment(position vec4, texCoord vec2, color vec4) vec4 {
	uv := texCoord
	if HasFace > 0.5 && PixelSize > 0 && insideBBox(uv) {
		cell := floor(uv/PixelSize) * PixelSize
		uv = cell + PixelSize*0.5
	}
	c := imageSrc0At(uv)
	c.rgb = applyGamma(c.rgb)
	return c
}
`

// maskKage is the Kage source for the mask overlay pass, spec.md §4.4
// sub-stage 2: two directional Lambertian terms, a cubed Fresnel rim,
// and a low-amplitude animated sine pattern; sticker mode bypasses
// lighting and emits the sampled color verbatim.
const maskKage = `
//kage:unit pixels

package main

var LightA vec3
var LightB vec3
var Sticker float
var Time float
var HasTexture float

func Fragment(position vec4, texCoord vec2, normalColor vec4) vec4 {
	normal := normalize(normalColor.xyz*2 - 1)
	base := imageSrc0At(texCoord)

	if Sticker > 0.5 {
		return base
	}

	diffuse := 0.6*max(dot(normal, LightA), 0) + 0.4*max(dot(normal, LightB), 0)
	rim := pow(1-max(dot(normal, vec3(0, 0, 1)), 0), 3)
	sine := 0.05 * sin(10*texCoord.x+Time)
	shade := clamp(diffuse+0.25*rim+sine, 0, 1)

	tint := vec3(0.7, 0.72, 0.78)
	if HasTexture > 0.5 {
		tint = base.rgb
	}
	return vec4(tint*shade, 1)
}
`
