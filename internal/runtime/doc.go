// Package runtime contains the event distribution engine behind the public
// ariflow API: the listener registry, the event model catalog, the object
// extractor, and the dispatch loop that drains one event stream connection at
// a time. The root ariflow package re-exports the stable surface.
package runtime
