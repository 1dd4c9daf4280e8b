package models

import (
	"net/http"
	"time"
)

// EndpointClass groups routes that share a request allowance.
type EndpointClass string

const (
	// ClassRead: listings, slot lookups, catalog reads
	ClassRead EndpointClass = "read"
	// ClassWrite: donations, allocations, bookings, advisories
	ClassWrite EndpointClass = "write"
)

// ClassForMethod maps safe methods to ClassRead and everything else to ClassWrite.
func ClassForMethod(method string) EndpointClass {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ClassRead
	default:
		return ClassWrite
	}
}

// Limit is an allowance of RequestsPerWindow within a sliding Window.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// RateLimitResult is the outcome of one check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is in whole seconds and only set when Allowed is false.
	RetryAfter int
}

// NewIPKey builds the bucket key for a client IP and endpoint class.
func NewIPKey(ip string, class EndpointClass) string {
	return "ip:" + ip + ":" + string(class)
}
