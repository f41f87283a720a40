// Package conceal hides opaque payloads inside class files and recovers
// them bit-for-bit.
//
// Two strategies are implemented over the classfile codec:
//
//   - Attribute: a single class-level attribute named GhostPayload carrying a
//     versioned container (magic + length + bytes). Small and fast, but
//     visible to tools that list unknown attributes.
//   - S-Box smearing: the payload is encoded into an integer table shaped
//     like a cryptographic S-Box, materialized by a synthesized class
//     initializer into a static field. A second field holds a checksum
//     computed from every table slot at class-load time, so dead-code
//     elimination cannot drop the table.
//
// All operations are pure functions on byte slices; concurrent calls on
// distinct inputs need no coordination.
package conceal
