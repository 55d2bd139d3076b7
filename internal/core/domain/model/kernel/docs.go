// Package kernel provides shared domain primitives for the dispatch service.
//
// The package includes:
//   - UUID: A value object for unique identifiers with validation and comparison capabilities
//   - Location: A geographic point (latitude/longitude, optional address) with haversine distance
//
// Both are immutable and invalid as zero values; construct them through their
// constructors.
package kernel
