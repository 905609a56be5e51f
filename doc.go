// Package openmap provides open addressing hash maps and sets for comparable
// keys and values.
//
// Map and Set probe linearly and delete by shifting later entries back, so
// the table never holds tombstones. LinkedMap and LinkedSet additionally keep
// the order of their entries in a doubly linked list indexed by slot.
// SegmentedMap splits its entries over independently locked tables for
// concurrent use.
//
// The zero key is stored in a dedicated slot and is a valid key everywhere.
// Float keys and values are compared by bit pattern, so -0.0 and 0.0 are
// distinct and NaN is a usable key.
package openmap
