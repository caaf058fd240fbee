// Package channel defines the messaging surface the sticker pipeline talks to.
//
// Platform adapters (telegram, discord) translate their native updates into
// Message values exactly once, classifying any attachment into a media.Kind
// on the way in. Everything downstream of the adapters works with these
// types and the Transport interface only.
package channel
