// Package logging builds the slog loggers used by sidepost.
//
// Library packages (sidepost, client, mockserver) never log unless given a
// logger; they accept a *slog.Logger and fall back to Nop. The CLI builds
// the process logger from the log section of the configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel(cfg.Log.Level),
//	    Format: logging.ParseFormat(cfg.Log.Format),
//	})
//
// Text output is meant for terminals, JSON output for log collectors.
// Tee sends every record to several handlers, e.g. stderr and a log file.
package logging
