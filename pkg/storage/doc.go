// Package storage is the document store behind mealdeals.
// It keeps JSON documents in BadgerDB under prefixed keys such as "meal:<id>" and "offer:<id>".
package storage
