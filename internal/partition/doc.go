// Package partition implements the partition synthesis engine: the
// manager that lazily materializes concrete partition schemas on demand,
// and the cascade that propagates deferred foreign keys across dependent
// template families so related entities always share a partition key.
//
// # Critical invariants
//
//   - Idempotent creation: GetPartition(key) for an existing partition
//     returns the identical entity; no second entity is created
//   - One synthesis at a time: the create path runs under the catalog's
//     single process-wide synthesis lock, held across the whole cascade
//   - Fail loud: a mid-cascade failure propagates with entity and key
//     context; already-registered entities are not rolled back
//
// The engine performs no I/O itself - physical table creation is the
// store package's job.
package partition
