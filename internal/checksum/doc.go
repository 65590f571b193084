// Package checksum computes the content digest and size of archive files.
//
// Digests are taken over the bytes as stored, so a compressed file and its
// uncompressed twin have different checksums even though they share a
// record id.
//
// MD5 is a zero-size type and is safe for concurrent use by multiple
// goroutines.
package checksum
