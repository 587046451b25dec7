// Package access implements the client access policy checked before routing.
//
// A Host carries the listen address and a set of banned client identifiers.
// Lookups are map-based and the set never changes after NewHost, so a Host can
// be shared by every request goroutine without locking.
//
// RateLimiter is an optional per-client token bucket checked after the ban
// list.
package access
