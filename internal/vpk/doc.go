// Package vpk reads Valve Pak (VPK) archives.
//
// Both version 1 and version 2 directory files are supported, as well as
// multi-chunk packages where a <name>_dir.vpk directory references sibling
// <name>_NNN.vpk data files. Entries are grouped by extension, matching how
// the game tooling addresses compiled resources (vents_c, vmat_c, ...).
//
// The reader does not verify archive MD5 sections or signatures; CRC32 checks
// on individual entries are opt-in via WithChecksumVerification.
package vpk
