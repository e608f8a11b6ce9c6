// Package core contains the canonical datastore client contracts, error
// kinds and configuration. Lower-level adapters (auth, transport, convert)
// depend on this package; core must not depend on any of them.
package core
