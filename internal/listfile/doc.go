// Package listfile reads auxiliary list files into ordered per-line records.
//
// A list file names the inputs of a multi-file command, one line per input
// group. Every line becomes a Record holding one field mapping per sub-unit.
// Hierarchical formats spell the sub-units out:
//
//	# config, wcl, yaml
//	list:
//	  line:
//	    line00001:
//	      file:
//	        sci: {filename: a.fits, ccd: 1}
//
//	# hcl
//	line "line00001" {
//	  file "sci" {
//	    filename = "a.fits"
//	    ccd      = 1
//	  }
//	}
//
// Flat text formats (textcsv, texttab, textsp) hold one delimited line per
// record; tokens are paired positionally with the requested columns and the
// result is stored under the single sub-unit "file". Lines with fewer tokens
// than columns simply lack the trailing fields.
package listfile
