// Package policy is the typed, read-only view of the filetype_metadata
// section of the configuration document.
//
// A policy says, per file type and per structural unit (HDU), where each
// metadata field comes from:
//
//	filetype_metadata:
//	  raw_hsc:
//	    filename_pattern: '^HSC-(?P<visit>\d{7})-(?P<ccd>\d{3})\.fits$'
//	    hdus:
//	      primary:
//	        override: {func: compound, key: CALIB_ID, fields: [filter, calibDate, ccd]}
//	        r:                       # status section, any name
//	          f: {filename: , visit: }
//	          w: {reqnum: reqnum}
//	          h: {exptime: EXPTIME, object: }
//	          c: {band: , nite: }
//	      sci:
//	        r:
//	          p: {gain: {unit: sci, key: GAIN}}
//
// Kind codes: f filename, w config, h header, c computed, p copy from unit.
// A kind may also be written as a list of field names or a comma-separated
// string, in which case every descriptor takes its default.
//
// Units and sections keep their declared order. Within a section the kinds
// are always applied in the fixed order f, w, h, c, p regardless of how they
// are written, so a header value overrides a filename value for the same field.
//
// A Model is immutable once parsed and safe for concurrent use.
package policy
