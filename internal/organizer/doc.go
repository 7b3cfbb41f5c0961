// Package organizer maps media records onto the date-based library layout.
//
// Every file lands under <root>/YYYY/MM/DD/ with zero-padded components.
// Name collisions are resolved by content identity: an identical file at the
// target is a no-op, a different file gets a numeric disambiguator. Nothing
// is ever overwritten.
package organizer
