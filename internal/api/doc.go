// Package api provides the HTTP REST API for Sceneforge Core.
//
// It exposes batch submission, batch history, template discovery, and
// health endpoints to upstream pipeline stages and operators.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
