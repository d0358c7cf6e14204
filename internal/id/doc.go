// Package id provides identifier generation utilities.
//
// This is the canonical source for ID generation across the sidepost codebase:
//
//   - Temp: process-unique temporary identifiers handed to records that have
//     not been persisted yet. They correlate a to-be-created record with its
//     entry in a sideposted document until the server assigns a real id.
//   - Sequence: monotonically increasing decimal ids, used by the mock server
//     to mimic a database primary key ("1", "2", ...).
package id
