// Package filesystem abstracts the file access ftmgmt needs around its core:
// reading list files and configuration, checking that inputs exist, and
// walking directories given on the command line for data files.
//
// Implementations:
//   - OSFileSystem: production implementation on the OS filesystem
//   - MemoryFileSystem: in-memory implementation for tests
package filesystem
