// Package sync implements incremental catalog synchronization against
// the partner API.
//
// DeltaSyncer fetches only products changed since a watermark and
// classifies them as new or updated. Resolver reconciles a partner copy
// against a local copy under a named strategy, with the merge field
// policy supplied as configuration rather than hardcoded. Reconciler
// verifies two snapshots via an order-independent checksum and a
// field-level diff. Orchestrator coordinates multiple sync sub-tasks
// and reports failures instead of raising them.
package sync
