// Package scheduler runs background maintenance for the offer catalog.
// It periodically asks the tagger to fill in matched items for new offers
// and stops cleanly, cancelling a run that is still in progress.
package scheduler
