// Package places extracts named place markers from map archives.
//
// The package owns the extraction pipeline: it locates the entity lump inside
// an archive (through the ArchiveOpener and ResourceDecoder capabilities), keeps
// only env_cs_place entities, parses their origin strings into Vector3 values,
// and aggregates them into an insertion-ordered PlaceMap. Archive and resource
// formats are supplied by callers so the pipeline can be exercised with fakes.
//
// PlaceMap and ResultSet encode to JSON with keys in first-seen order so
// repeated runs over the same archives produce byte-identical output.
package places
