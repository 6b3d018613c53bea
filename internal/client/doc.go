// Package client is a small REST client for a running drowse daemon.
//
// It is used by the CLI subcommands. Every method maps one route of the
// daemon's HTTP API and decodes the response into the types of the api
// package. Non-2xx responses are returned as *APIError carrying the HTTP
// status and the machine readable error code from the response body.
//
//	c := client.New("http://localhost:8080")
//	st, err := c.WakeService(ctx, "translate")
//	if client.IsNotFound(err) {
//	    ...
//	}
package client
