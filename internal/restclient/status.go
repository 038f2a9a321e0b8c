package restclient

import (
	"fmt"
	"net/http"
)

// EndpointStatus represents a normalized API endpoint outcome.
type EndpointStatus string

const (
	// EndpointStatusOK indicates a successful response.
	EndpointStatusOK EndpointStatus = "ok"
	// EndpointStatusUnauthorized indicates a missing or invalid token.
	EndpointStatusUnauthorized EndpointStatus = "unauthorized"
	// EndpointStatusForbidden indicates authorization failure or restricted access.
	EndpointStatusForbidden EndpointStatus = "forbidden"
	// EndpointStatusNotFound indicates the resource does not exist or is hidden.
	EndpointStatusNotFound EndpointStatus = "not_found"
	// EndpointStatusUnprocessable indicates request validation failure.
	EndpointStatusUnprocessable EndpointStatus = "unprocessable"
	// EndpointStatusUnavailable indicates a server-side failure.
	EndpointStatusUnavailable EndpointStatus = "unavailable"
	// EndpointStatusUnknown indicates an unclassified non-success status.
	EndpointStatusUnknown EndpointStatus = "unknown"
)

// StatusError reports a non-success response from an endpoint.
type StatusError struct {
	Endpoint string
	Status   EndpointStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: endpoint status %s", e.Endpoint, e.Status)
}

// StatusFromHTTP classifies an HTTP status code.
func StatusFromHTTP(statusCode int) EndpointStatus {
	switch statusCode {
	case http.StatusUnauthorized:
		return EndpointStatusUnauthorized
	case http.StatusForbidden:
		return EndpointStatusForbidden
	case http.StatusNotFound:
		return EndpointStatusNotFound
	case http.StatusUnprocessableEntity:
		return EndpointStatusUnprocessable
	}
	if statusCode >= 200 && statusCode <= 299 {
		return EndpointStatusOK
	}
	if statusCode >= 500 {
		return EndpointStatusUnavailable
	}
	return EndpointStatusUnknown
}
