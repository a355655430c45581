// Package logging configures log/slog for stubd.
//
// Components take a *slog.Logger through an option and default to Nop, so
// embedding a server in a test never writes to stderr unless asked to:
//
//	srv := engine.NewServer(cfg, d, fb, engine.WithLogger(logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})))
//
// TeeHandler fans records out to several handlers, for example the console
// and a log file at different levels.
package logging
