// Package server wires configuration, logging, metrics, the embedding
// coordinator and the HTTP surface into one runnable unit.
package server
