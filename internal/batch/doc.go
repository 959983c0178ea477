// Package batch queues record mutations and flushes them in bounded batches.
//
// Inserts and updates accumulate in independent queues. A queue is flushed as
// soon as it reaches the configured size and both are flushed when the scan
// finishes. Each operation commits on its own: one failure is logged and
// counted and the rest of the queue still runs.
package batch
