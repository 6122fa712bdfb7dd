// Package doccache resolves human-typed symbol names into rendered
// documentation snippets sourced from Sphinx documentation sites. It
// loads intersphinx inventories for a configurable set of packages,
// disambiguates conflicting symbol names across packages, fetches each
// documentation page at most once per batch, and serves previously
// rendered symbols from a durable cache across process restarts.
//
// This package contains domain types and interfaces following Ben
// Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., sqlite/,
// http/, goquery/), with coordination logic in docs/.
package doccache
