// Package shape resolves the return shape of a contract method.
//
// A method's results are matched once, at bind time, against an ordered list
// of candidates, most specific first:
//
//  1. a literal Result[T, E]
//  2. a (T, E) pair whose last element implements error
//  3. a lone error (unit success)
//  4. plain: no result, or a single non-error value
//
// Exactly one candidate matches a supported shape. The resulting Shape feeds
// both runtime normalization (Shape.Normalize) and schema derivation, so the
// two always agree on the success type.
package shape
