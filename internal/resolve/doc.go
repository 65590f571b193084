// Package resolve walks a file type's metadata policy against one input file
// and produces the file's metadata record and the provenance of every value.
//
// Each declared field becomes one Step of a Plan. Steps run in plan order
// (unit, then section, then kind f, w, h, c, p) and a successful step
// overwrites any earlier value of the same field, so later and more specific
// sources win. A step that cannot produce a value is logged and skipped; only
// an unknown file type or an unopenable file fails the whole resolution.
//
// Ingested answers, for a batch of files, which ones already have their
// contents recorded downstream.
package resolve
