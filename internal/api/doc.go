// Package api implements the HTTP surface of the device service.
//
// Endpoints:
//   - GET /api/v1/ping: liveness probe, answers "pong"
//   - GET /api/v1/debug/transformData/{transformData}: sets the transform flag
//   - POST /api/v1/discovery: starts a background discovery scan
//   - any method on /{callback_path}: metadata registry change callbacks
//   - GET /metrics: Prometheus exposition
//
// # Callbacks
//
// The request method is the callback verb and the optional JSON body is the
// notification ({"type": "DEVICE", "id": "..."}). The callback.Router outcome
// maps onto the response:
//
//	handled, ignored, empty body  200, empty body
//	malformed notification        400
//	body over 1MB                 413
//	resource not found            404, message names the kind and id
//	handler fault                 500
//
// Error responses use the JSON envelope {status, code, message}.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
