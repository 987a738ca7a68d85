// Package httpapi is the HTTP driving adapter: a chi router exposing
// document upload, status polling, question answering and quota
// inspection, plus health and metrics endpoints.
//
// Client identity is an opaque string derived from the network address
// by middleware; there is no authentication layer.
package httpapi
