// Package lock reads and writes splent.lock.yaml, which records the exact
// commit checked out for every versioned feature of a product so that
// product:sync --lock can reproduce it.
package lock
