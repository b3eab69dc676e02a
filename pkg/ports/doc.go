/*
Package ports defines the driven ports (interfaces) of the covenant runtime.

These interfaces decouple dispatch from external implementations, allowing
a contract to keep its state in memory, on disk, in Redis or in SQLite.

# Key Interfaces

  - StateStore: persists and loads the encoded contract state of an account.
  - DistributedLocker: serializes calls against one account across replicas.
  - DescriptorLoader: reads method descriptors for offline classification (e.g. from Loam).
*/
package ports
