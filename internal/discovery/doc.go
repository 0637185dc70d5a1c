// Package discovery derives new compression templates from observed
// response traffic.
//
// The pipeline runs in four stages: mine frequent word n-grams from a
// bounded corpus of recent responses, cluster near-duplicate candidates,
// align each cluster into a parameterized pattern with {i} slots, and
// screen the result for secret-like or low-value content. Accepted
// patterns receive IDs from a configured allocation range and are
// registered with the compressor, persisted, and announced on the event
// bus.
//
// A Worker ties the stages together on a periodic schedule. Feed it
// response texts with Observe; it does the rest in the background.
package discovery
