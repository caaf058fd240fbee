// Package media classifies inbound attachments and carries the resolved media
// payload to the conversion engine.
//
// Classify is the single place that maps a declared content type plus platform
// flags onto a Kind. Transport adapters classify once when a message arrives;
// the job pipeline then builds a Descriptor from the downloaded bytes without
// reclassifying, using Sniff only to reject payloads that are not media at all.
package media
