/*
Package session serializes calls against one account.

Two calls on the same account never interleave: the Manager holds an
in-process mutex per account and, when configured, a distributed lock so
that replicas sharing a store behave the same way.
*/
package session
