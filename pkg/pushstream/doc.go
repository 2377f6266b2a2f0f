// Package pushstream provides an order-preserving prompt queue that can be
// appended to while a consumer is already draining it.
//
// Invariants:
// - Prompts are yielded in FIFO push order.
// - An open stream with an empty queue blocks; it never signals completion.
// - Completion is signalled only after Close with an empty queue.
// - Each Push or Close wakes at most one waiter.
package pushstream
