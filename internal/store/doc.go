// Package store keeps the link tables of generated packs in SQLite.
//
// A build records, for one compilation, every function path per recursion
// depth, every variable's score holder and every constant slot. Reading a
// path or holder back from a running pack then names the source function
// or variable it belongs to.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Builds own their rows
//
// All queries order by a stable key so results are deterministic.
package store
