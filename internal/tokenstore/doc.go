// Package tokenstore holds the authoritative set of issued bearer tokens.
//
// A Store owns a label-keyed map of tokens plus a derived secret-membership
// set, backed by a flat file of `label:secret` lines. Mutations rebuild the
// membership set synchronously and rewrite the file before returning, so the
// in-memory state and the file never disagree after a successful call. A
// serving process answers membership checks from memory only; it picks up
// external mutations by reloading.
package tokenstore
