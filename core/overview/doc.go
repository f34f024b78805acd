// Package overview accumulates the LLM usage of one execution.
// Attach an [Overview] to a context with [Overview.ToContext]; every client
// call made under that context records into it, parallel branches included.
// [Overview.Snapshot] returns the totals, priced when a model cost is known.
package overview
