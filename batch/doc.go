// Package batch provides chunked, bounded-concurrency execution over
// collections of partner calls.
//
// Items are split into fixed-size chunks; chunks run concurrently up to
// a cap while items inside a chunk run sequentially. Failures are
// aggregated per item with the item's original input index preserved,
// so a partially failed batch reports exactly which inputs failed no
// matter how the chunks interleaved. ExecuteStrict layers all-or-nothing
// semantics on top for callers that need them.
package batch
