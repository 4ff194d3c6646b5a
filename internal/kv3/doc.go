// Package kv3 decodes KeyValues3 documents in their text and binary
// encodings.
//
// A text document starts with an optional <!-- kv3 ... --> header naming the
// encoding and format, followed by a single root value. Binary documents use
// either the VKV3 container or the KV3 container revisions 1 through 5, whose
// buffers may be LZ4 or zstd compressed. Objects preserve key order so callers
// observe values in the same order the compiler wrote them.
package kv3
