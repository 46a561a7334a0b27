// Package locate maps medication descriptions to storage locations.
//
// A Resolver is built once from reference rows (name, location code, unused,
// location description). Lookups pass through a fixed cascade: the fridge
// override, exact matches on progressively shorter keys, weighted fuzzy
// matching and finally order-independent sorted keys. A lookup that no step
// accepts returns NotFound; the resolver never guesses a location for a
// different strength.
package locate
