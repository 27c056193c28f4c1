// Package feed decodes push notifications from the odds provider and
// applies them to a store.
//
// A CONTENT_CHANGES notification carries content containers. A container
// without a path is the initial value of its content (an event list, one
// event or one market). A container with a path is an incremental change
// whose target is named by the path, e.g.
//
//	idfoevent[3921509.1].idfomarket[m1].idfoselection[o1]
//	idfoevent[3921509.1].liveDataSummary.scores.MATCH_SCORE
//
// Decode turns a message into typed Updates; the Router consumes the
// connection manager's output and hands every Update to a Target, which is
// either a list store or a detail store. Paths that map to no update are
// counted and dropped.
package feed
