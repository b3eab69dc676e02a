/*
Package covenant turns the methods of a Go state type into contract entry points with
well-defined commit and rollback semantics.

Every exported method of the state type is classified once, when the contract is defined:
its kind (call, view or constructor), its markers (payable, private, serializer choice) and
the shape of its return value. A method that returns a fallible shape must be marked
handle_result; one that cannot be classified fails the whole definition.

# Terminals

Each call ends in exactly one terminal:

  - Committed: the method succeeded; calls and constructors write state back.
  - RolledBack: the method returned an error; nothing it changed is kept.
  - CommittedWithError: the method returned an error whose type embeds PersistOnError;
    state is written back and the error is still reported.
  - Aborted: the method called Abort (or panicked); state is always discarded.

Handled failures are reported as a single diagnostic string holding the error envelope,
{"error":{"error_type":...,"value":...}}. Aborts report the raw message.

# Usage

	type Counter struct {
		Value uint32 `json:"value"`
	}

	func (Counter) Markers() map[string][]covenant.Marker {
		return map[string][]covenant.Marker{"Inc": {covenant.HandleResult}}
	}

	func (c *Counter) Inc(limit uint32) (uint32, error) {
		c.Value++
		if c.Value > limit {
			return 0, errors.New("limit reached")
		}
		return c.Value, nil
	}

	func (c Counter) Get() uint32 { return c.Value }

	func main() {
		def := covenant.MustDefine[Counter](covenant.Constructor("new", func() Counter { return Counter{} }))
		rt, err := covenant.New(def)
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		rt.Init(ctx, "alice.near", "new", nil)
		resp := rt.Call(ctx, "alice.near", "inc", []any{10})
		fmt.Println(resp.Display()) // committed 1
	}

The Runtime serializes calls per account and persists state through a ports.StateStore:
in memory by default, or the file, Redis and SQLite adapters, optionally wrapped in store
middleware such as encryption at rest.
*/
package covenant
