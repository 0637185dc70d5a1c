// Package accel caches decompression work across the lifetime of a
// conversation and aggregates pattern usage platform-wide.
//
// Chat traffic is repetitive: the same compressed response shapes recur
// within a conversation and across the whole deployment. The package
// keys cached results on the order-sensitive metadata signature, so a
// repeated payload skips template expansion entirely.
//
// Three layers build on each other:
//   - Cache: signature-keyed pattern store with LRU eviction
//   - Conversation: per-conversation cache plus processing statistics
//   - Platform: deployment-wide pattern frequencies and type tallies
//
// Manager ties them together for the serving layer: it tracks live
// conversations, folds finished ones into the platform view, and
// exports the cache metrics operators alert on.
//
// Lookups return owned copies. Mutating a returned Pattern never
// affects cached state.
package accel
