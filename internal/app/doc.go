// Package app provides the application service layer.
//
// Resolves a channel ID to a playable URL: registry lookup followed by a single
// upstream probe. Sits between HTTP handlers and the domain components and
// depends on domain interfaces, not concrete implementations.
package app
