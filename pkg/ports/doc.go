/*
Package ports defines the driven ports (interfaces) of the page builder.

These interfaces decouple the element-collection core from where and how a
document is kept, so that several documents (and tests) can use independent
storage instead of one ambient slot.

# Key Interfaces

  - Codec: the persistence adapter, mapping a collection to a string and back.
  - SnapshotStore: keeps the encoded string of each document (memory, file, Redis, SQLite).
  - DistributedLocker: coordinates access to a document across replicas.
*/
package ports
