// Package vars substitutes ${...} placeholders in configuration strings and
// command templates.
//
// Supported forms:
//
//	${name}      value of name
//	${a.b.c}     value at a dotted configuration path
//	${ccd:3}     integer value zero-padded to 3 digits
//	$opt{name}   value of name, or empty text when it is missing
//
// Names are looked up in the caller's search object first (case-insensitive)
// and then in the configuration store. A configuration value that is a list
// expands the template once per element; several list placeholders yield the
// cartesian product in placeholder order.
package vars
