// Package events connects aurad nodes over NATS so that pattern usage
// and template discoveries propagate across the platform.
//
// Two subjects carry all traffic: aura.patterns.used announces each
// compressed message's signature, and aura.templates.discovered
// announces newly promoted templates. A Publisher with a nil connection
// degrades to a no-op, so single-node deployments need no broker.
package events
