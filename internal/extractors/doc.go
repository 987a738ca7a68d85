// Package extractors provides implementations of the Extractor interface
// for the supported upload formats. Each extractor knows how to pull
// plain text out of one content kind.
//
// Extractors are registered with the Registry at startup.
package extractors
