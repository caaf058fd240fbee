// Package dispatch turns inbound chat messages into at most one action:
// an immediate text reply, one queued sticker job, an audio fetch, or a
// read acknowledgement.
//
// Decide is pure and holds the command grammar; Dispatcher.Handle performs
// the side effect Decide selected.
package dispatch
