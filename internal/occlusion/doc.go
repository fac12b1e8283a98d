// Package occlusion builds soft occlusion masks for wall-photo crops.
//
// Given a decoded RGBA crop of a wall region, BuildMask produces a raster of
// identical dimensions whose alpha channel holds a per-pixel foreground
// strength in [0, 255]: 0 means bare wall, 255 means fully occluded by a
// foreground object (furniture, outlets, trim). The compositing layer uses
// that alpha to let the original photo show through on top of a rendered
// tile texture.
//
// The pipeline is deterministic and stateless: two structural passes over
// the pixels (an edge pipeline and a color pipeline) fused under a spatial
// gate, then tone-mapped. Every stage is a pure function over flat pixel
// buffers, so invocations are idempotent and may run concurrently for
// different crops without coordination. Stage parameters (thresholds, kernel
// radii, gamma) are carried in Params and calibrated against a labeled
// corpus by the sweep package.
package occlusion
