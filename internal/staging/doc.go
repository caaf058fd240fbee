// Package staging owns the per-job working directories under the configured
// work dir.
//
// A Scope hands out file paths for one job and removes all of them when the
// job finishes, on success and failure alike. CleanStale sweeps scope
// directories left behind by a crashed process at daemon start.
package staging
