// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package streaming decides which parts of a partially parsed LLM response may
be shown while the response is still streaming.

# Overview

A Validator takes a flagged value tree (the lenient parser's output, with
Incomplete and Pending flags marking data still in flight) together with
the declared type, and returns a fresh tree where every node carries a
types.Completion:

	flagged.Value ──► unify.DistributeTypeWithMeta ──► per-node (state, type)
	                                                        │
	                                                        ▼
	                               Validate(allowPartials) ──► Result

The caller invokes Validate once per chunk with allowPartials=true and once
more when the stream ends with allowPartials=false. Replay does exactly
that over a slice of accumulated snapshots.

# Rules

  - Scalars other than strings, literals, enums and anything annotated
    @stream.done must be complete before they are surfaced. Everything
    below such a node is validated as final.
  - A list item or map entry that fails is dropped.
  - A class field that fails becomes a null placeholder. Declared fields
    that have not arrived yet become null with Pending completion, so the
    class always has its full declared shape, in declared order.
  - Fields marked @stream.not_null must be present and non-null while the
    stream is open, or the class fails with ErrMissingNeededFields.
    A needed field that itself fails with ErrIncompleteDoneValue is the
    exception: the class fails with ErrIncompleteDoneValue instead of
    getting a null placeholder followed by ErrMissingNeededFields. Callers
    that matched on ErrMissingNeededFields for half-streamed needed scalars
    should treat both codes as "not yet".

# Errors

ErrIncompleteDoneValue is retryable: under allowPartials=true it only means
more data is needed. ErrMissingNeededFields and ErrExpectedClass are terminal.
ErrDistributeTypeFailure wraps the unification error that caused it.

# Observability

WithObserver attaches an Observer (internal/metrics.Collector implements
one) that receives a Report with the outcome, duration, recovery counters
and a Summary of the result after every call.
*/
package streaming
