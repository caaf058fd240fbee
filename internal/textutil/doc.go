// Package textutil normalizes user-supplied text before it is stamped into
// sticker metadata or used as a file name.
package textutil
