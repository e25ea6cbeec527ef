// Package sniff identifies an image format from the leading bytes of a
// recovered BLOB value, checking it against a small, fixed magic-byte
// signature table and no others. It is a pure byte-signature lookup: it
// never inspects the rest of the blob, never validates image structure,
// and never reaches back into the core decoder.
package sniff

import "bytes"

// signature pairs a magic byte prefix with the format tag it identifies.
type signature struct {
	magic []byte
	tag   string
}

// table is the blob-sniffer signature list, longest match first
// isn't required since every signature here is a literal prefix check
// and none of these specific prefixes collide.
var table = []signature{
	{[]byte{0xFF, 0xD8, 0xFF}, "jpg"},
	{[]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
	{[]byte("GIF87a"), "gif"},
	{[]byte("GIF89a"), "gif"},
	{[]byte("BM"), "bmp"},
	{[]byte{0x49, 0x49, 0x2A, 0x00}, "tif"},
	{[]byte{0x4D, 0x4D, 0x00, 0x2A}, "tif"},
	{[]byte{0x00, 0x00, 0x01, 0x00}, "ico"},
}

// Sniff reports the format tag matching the start of prefix, if any. A
// prefix shorter than a given signature simply never matches it; Sniff
// never panics on a short slice.
func Sniff(prefix []byte) (format string, ok bool) {
	for _, sig := range table {
		if bytes.HasPrefix(prefix, sig.magic) {
			return sig.tag, true
		}
	}
	return "", false
}
