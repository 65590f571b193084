// Package cmdline assembles the extra command-line arguments a wrapped
// program receives for a multi-file run, from the wrapper section of the
// configuration and the run's list files.
//
// Two template shapes are supported:
//
//	wrapper:
//	  per_file_cmdline: list.corr.img_corr:--selectId visit=$(visit) ccd=$(ccd)
//	  add_cmdline: "'^'.join(list.visits.file.visit)"
//
// per_file_cmdline expands the pattern once per list line against that line's
// sub-unit and appends the fragments space separated. add_cmdline collects
// the distinct values of one field across all lines and appends them joined
// with the separator. When both are set per_file_cmdline wins.
package cmdline
