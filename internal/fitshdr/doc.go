// Package fitshdr reads the headers of FITS files.
//
// Only headers are decoded; data units are skipped using the sizes the
// headers declare (BITPIX, NAXISn, PCOUNT, GCOUNT). Gzip-compressed files are
// decompressed transparently. Tile-compressed .fz files are ordinary FITS and
// read as such; their image parameters live in the compressed extension's header.
//
// Units are addressed by name: "primary" (or "0") for the primary HDU, an
// extension's EXTNAME case-insensitively, or its zero-based index.
package fitshdr
