// Package ir provides the intermediate representation produced by lowering.
//
// This package contains type definitions only. The compiler builds a Module,
// the linker assigns it paths and storage, and codegen renders it; ir itself
// imports nothing internal except diag for invariant checks.
//
// Key design constraints:
//   - Commands are flat: each performs one primitive operation on atoms
//   - Commands never reference other commands, only atoms and fragments
//   - Pseudo variables are numbered per fragment; reuse across fragments
//     relies on fragments of one call chain never running concurrently
//   - Constants are interned per module: one slot per distinct value
package ir
