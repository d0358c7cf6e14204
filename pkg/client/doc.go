// Package client saves record graphs to a JSON:API server using
// sideposting.
//
// Save serializes a record together with the relationships named in
// SaveOptions, sends it as one POST (new records) or PATCH request, pushes
// the response back into the record store and reconciles the graph:
//
//	c := client.New("http://localhost:4200", store)
//	res, err := c.Save(ctx, post, client.SaveOptions{
//		Relationships: []any{"tags", map[string]any{"author": "state"}},
//	})
//
// After a successful save, records that were created through the request
// are replaced by the server's copies, destroyed records are unloaded, and
// disassociated records are removed from their parent.
package client
