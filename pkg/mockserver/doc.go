// Package mockserver is an in-memory JSON:API backend that understands
// sideposting documents.
//
// Each resource type lives in a collection with sequential string ids
// ("1", "2", ...). A create or update request applies the root's
// attributes, then walks its relationship linkage and performs the method
// of every identifier using the payloads sideposted in included:
//
//   - create makes a new record, unless its attributes are rejected by the
//     collection's rejectIf rule (all attributes blank by default);
//   - update writes the sideposted attributes to an existing record;
//   - destroy deletes the record and every link to it;
//   - disassociate removes the link but keeps the record;
//   - no method keeps the record linked.
//
// Records already linked through a to-many relationship stay linked unless
// the request removes them. Responses embed the relationships listed in the
// collection's include list.
//
// The Server type exposes the store over HTTP:
//
//	POST   /{type}
//	GET    /{type}
//	GET    /{type}/{id}
//	PATCH  /{type}/{id}
//	DELETE /{type}/{id}
//	POST   /__sidepost/reset
package mockserver
