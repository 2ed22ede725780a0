// Package browser manages the pool of browser contexts and pages used
// by the fetch pipeline.
//
// The package is built around three core concepts:
//
//  1. Session: a named, isolated browser context (cookies/storage)
//     grouping the pages opened inside it.
//  2. Tab: a single page belonging to exactly one Session, opened per
//     fetch and closed after response assembly unless retained.
//  3. Gate: counting admission control bounding the number of
//     simultaneously open tabs per Session.
//
// A Gate slot is acquired before a tab is created and released exactly
// once when the page reports close or crash. Tabs and sessions deliver
// typed lifecycle events to the pool rather than mutating shared maps
// from callbacks, so all registry bookkeeping happens inside
// PoolManager methods under its lock.
package browser
