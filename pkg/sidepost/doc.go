// Package sidepost serializes a record graph into a single JSON:API
// sideposting document and reconciles the graph after the save succeeds.
//
// A save of a root record carries the root's own changes together with the
// related records named by a relationships directive. Each related record
// is referenced from its parent's relationship linkage with an intended
// method (create, update, destroy, disassociate, or none) and its payload
// is sideposted once in the top-level included list:
//
//	s := sidepost.NewSerializer(naming.Default(), logger)
//	doc, err := s.Serialize(post, sidepost.Options{
//		Sideposting:   true,
//		Relationships: []any{"tags", map[string]any{"author": "state"}},
//	})
//
// After the server acknowledges the save, Push applies the response to the
// graph and Reconcile unloads records that were created or destroyed and
// detaches records that were disassociated.
package sidepost
