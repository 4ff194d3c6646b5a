// Package resource decodes compiled Source 2 resource files.
//
// A resource starts with a fixed header followed by a table of typed blocks
// (RERL, REDI, NTRO, DATA, ...). Entity lumps (vents_c) keep their payload in
// the DATA block as KeyValues3; this package exposes that payload as an
// EntityLump whose entities answer case-insensitive property lookups.
package resource
