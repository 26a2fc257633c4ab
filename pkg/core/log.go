package core

import "log"

// LogLevel is set by the CLI's --loglevel flag.
var LogLevel = "info"

func debugLog(format string, args ...interface{}) {
	if LogLevel == "debug" {
		log.Printf(format, args...)
	}
}

func warnLog(format string, args ...interface{}) {
	if LogLevel != "error" && LogLevel != "fatal" {
		log.Printf("warning: "+format, args...)
	}
}
