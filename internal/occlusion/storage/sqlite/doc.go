// Package sqlite contains the SQLite repository for calibration results.
//
// All database read/write operations for calibration runs belong here rather
// than in the occlusion domain packages. This keeps mask logic free of SQL
// noise and makes it easier to swap storage backends for testing.
package sqlite
