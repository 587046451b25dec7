// Package log provides simple leveled logging for hostgate.
//
// Levels are DEBUG (verbose mode only), INFO, WARN and ERROR. Output is
// colored with ANSI escape codes; errors go to stderr, everything else to
// stdout unless SetForceStdErr or SetOutput redirects it.
//
// Basic logging:
//
//	log.Infof("Starting server on %s", addr)
//	log.Warnf("[access] remote=%s status=%d", remote, status)
//
// Capturing output in tests:
//
//	var buf bytes.Buffer
//	prev := log.SetOutput(&buf)
//	defer log.SetOutput(prev)
//
// All functions are safe for concurrent use; each call writes one whole line.
package log
