// Package wire holds the literal JSON shapes exchanged with the store's
// REST endpoints. Every union field is optional here; package convert owns
// the rules that turn these shapes into well formed values.
package wire
