// Package delivery hands finished stickers to a transport.
//
// Deliver stamps pack metadata into the WebP and sends it. Every failure,
// in delivery or upstream of it (Fail), ends with exactly one plain-text
// notice to the user. The notice path itself never panics or returns errors
// to the caller; it logs them.
package delivery
