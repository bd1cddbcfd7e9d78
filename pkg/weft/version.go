// Package weft carries module-level metadata.
package weft

// Version is the weft release version.
const Version = "0.1.0"
