// Package model defines the rows and transfer payloads exchanged between
// storage and the presentation layer.
package model
