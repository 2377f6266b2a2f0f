// Package mailbox implements the file-based control channel used to deliver
// follow-up prompts and the termination signal to a running session.
//
// Invariants:
// - Message files are consumed in lexicographic filename order.
// - A message file is deleted as soon as it is read; malformed files are
//   poison: logged, deleted, never retried.
// - The close sentinel is consumed at most once; the first observer to
//   delete it wins.
package mailbox
