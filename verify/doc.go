// Package verify answers two questions about emitted class bytes: is the
// byte sequence structurally well-formed, and does the host environment
// accept and execute it.
//
// Structural verification is self-contained. Runtime verification shells out
// to a host JVM: the bytes are written to a uniquely-named scratch directory,
// loaded through a synthesized runner class, and the scratch directory is
// released on every exit path. Concurrent calls use disjoint directories.
package verify
