// Package serialization reads and writes component arrays in SafeTensors format.
//
// A component array is stored as its flat buffer unchanged; every leaf of its
// axis becomes one header entry whose data offsets are the leaf's byte range:
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON object, one entry per leaf plus "__metadata__"]
//	  [Data: the flat buffer]
//
// Leaf paths use the axis separator, so "layer_1.weight" is the weight leaf
// of group "layer_1". Readers rebuild groups from those names.
//
// The metadata always records the element type and a SHA-256 checksum of the
// data section, which the reader verifies.
package serialization
