// Package strata composes annotated configuration layers into one
// resolved tree of native values.
//
// A build runs four ordered phases: premerge lets incoming nodes
// capture what they are about to override, merge folds layers under
// priority, delete and allow-new rules, preprocess resolves file
// inclusions and table imports, and evaluate turns the composed tree
// into plain Go values, resolving cross-references, interpolations,
// expressions and function calls.
package strata
