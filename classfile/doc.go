// Package classfile implements a round-trippable codec for JVM class files.
//
// Parse builds an editable in-memory representation; Serialize emits it back.
// Any region the caller did not rewrite is emitted byte-for-byte, so
// Serialize(Parse(x)) == x holds for every input that parses. Unrecognized
// attributes are carried as opaque byte arrays and survive the round trip
// unchanged.
package classfile
