/*
Package dispatch runs bound contract methods against persisted state.

Every call moves through Invoked, then Executing, and ends in exactly one
terminal:

  - Committed: the method succeeded; state (for calls and constructors) and
    queued transfers are kept.
  - RolledBack: the method returned a handled failure whose error type does
    not persist; nothing is written.
  - CommittedWithError: the failure's error type persists state; state and
    transfers are kept and the failure is still reported.
  - Aborted: a precondition failed, arguments did not decode or the method
    aborted (panicked). Nothing is written.

Handled failures surface as a single diagnostic string carrying the error
envelope. Calls on one account are serialized by a session.Manager.
*/
package dispatch
