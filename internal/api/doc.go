// Package api provides an HTTP client for the UFO robot's web API.
//
// # Overview
//
// Every method performs exactly one request against a fixed path, checks the
// status class before touching the body, and decodes the body as text or JSON.
// There are no retries, no caching and no client-side timeout: callers bound a
// request with their context.
//
// # Endpoints
//
// System:
//
//	GET  /api/version                 -> text   (Version)
//	POST /api/system/algorithm/reset  -> text   (Reset)
//	GET  /api/system/algorithm        -> text   (Algorithm)
//	GET  /api/system/algorithms       -> JSON   (AlgorithmList)
//	PUT  /api/system/algorithm?name=  -> JSON   (SetAlgorithm)
//
// Commands:
//
//	POST /api/command/speed               {"speed": -100..100}
//	POST /api/command/logging             {"enabled": bool}
//	POST /api/command/destination-reached
//	POST /api/command/follow
//	POST /api/command/turn                {"angle": -180..180, "snap": bool}
//
// The websocket endpoint /api/monitoring is consumed by package monitor.
//
// # Errors
//
// All failures are reported as *RequestError. Its Error method returns the
// operation's fixed message ("Failed to fetch version", "Failed to set
// algorithm", ...). For non-2xx responses Status is set and the body is never
// read; transport and decode failures keep the cause reachable through
// errors.Unwrap. Command arguments outside the robot's limits fail locally with
// ErrInvalidArgument and no request is sent.
//
// # Null algorithm
//
// SetAlgorithm(ctx, nil) is a real request, not a no-op: the query parameter is
// the literal text "null".
//
// # Metrics
//
// Requests are counted in ufosure_api_requests_total{operation,outcome} and
// timed in ufosure_api_request_duration_seconds{operation} on the default
// Prometheus registry.
//
// # Usage Example
//
//	client, err := api.NewClient("192.168.1.40:8080")
//	if err != nil {
//		return err
//	}
//	version, err := client.Version(ctx)
//	if err != nil {
//		var reqErr *api.RequestError
//		if errors.As(err, &reqErr) {
//			slog.Warn("version fetch failed", "detail", reqErr.Detail())
//		}
//	}
package api
