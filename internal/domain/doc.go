// Package domain defines the core domain types and interfaces.
//
// Channels, resolutions and the sentinel errors shared between the registry,
// the upstream resolver and the HTTP layer live here. No implementation code,
// just contracts. Interfaces sit on the consumer side to avoid circular imports.
package domain
