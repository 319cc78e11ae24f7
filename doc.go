// Package pxl compiles declarative pixel-art descriptions into exact
// raster output.
//
// A description consists of palettes (token to color-literal maps with
// optional ramps), sprites (token grids, named shape regions, or
// references to other sprites), variants (palette overrides on a base
// sprite) and compositions (cell-grid scenes layering sprites and
// nested compositions with blend modes).
//
// The package operates on already-parsed, immutable registries and
// performs no file I/O besides the explicit PNG export on Pixmap.
// Rendering is synchronous and deterministic: identical inputs always
// produce byte-identical raster output, including seeded jitter.
//
// Strict-versus-lenient policy belongs to the caller. Entry points take
// a strict flag; under lenient policy every recoverable problem is
// reported as a Warning and resolution proceeds with a documented
// fallback.
package pxl
