// Package logging is the process-wide leveled logger.
//
// Messages are printf-style and prefixed with their level:
//
//	logging.Info("Collection opened: %d images", n)
//	logging.Debug("loader: %s -> %s", prev, next)
//
// The starting level comes from LOG_LEVEL (debug, info, warn, error) or
// DEBUG=true. SetLevel and SetOutput change it at run time. The interactive
// viewer draws on the terminal, so it points SetOutput at LOG_FILE or
// discards output; headless modes keep stderr.
//
// Fatal logs and exits with status 1. Library code returns errors instead.
package logging
