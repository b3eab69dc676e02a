/*
Package domain contains the core data model shared by every covenant package.

It defines how a contract method is described, how it is classified and what a
call produces. The package is kept pure and free of I/O so that the classifier,
the schema derivation and the dispatcher can all depend on it.

# Key Entities

  - MethodDescription: the input of classification (receiver form, parameters, results, markers).
  - ClassificationRecord: the immutable build-time verdict for one method.
  - ReturnPolicy: how a method's return value turns into an Outcome.
  - Outcome: the uniform success/failure value produced by normalization.
  - StateRecord: the persisted, codec-encoded contract state of one account.
  - Terminal: where a dispatched call ended (committed, rolled back, committed with error, aborted).
*/
package domain
