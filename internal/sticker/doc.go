// Package sticker describes sticker metadata and packages finished WebP
// assets for transport.
//
// Embed writes the pack name and publisher into a WebP EXIF chunk using the
// JSON layout messaging clients read sticker-pack attribution from. Simple
// (VP8/VP8L) files are promoted to the extended VP8X layout first, since only
// that layout can carry metadata chunks.
package sticker
