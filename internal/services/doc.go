// Package services defines shared utilities consumed by the job pipeline, the
// command dispatcher, and the transport adapters.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, conversation IDs, stages, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (download, conversion, delivery, ...) so the pipeline can pick the right
//     user notice and journal outcome.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across the bot.
package services
