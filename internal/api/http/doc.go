// Package http exposes the embedding coordinator to the host UI as a small
// JSON API on gin.
//
// Errors are returned as {"error": message, "kind": kind} with a status code
// derived from the embed error kind.
package http
