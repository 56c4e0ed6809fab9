// Package logging contains helpers to write leveled messages through a standard logger.
package logging

import "log"

const (
	infoPrefix  = "[INFO] "
	warnPrefix  = "[WARN] "
	errorPrefix = "[ERROR] "
)

// PrintlnInfo prints the given message with the INFO prefix.
func PrintlnInfo(logger *log.Logger, message string) {
	logger.Println(infoPrefix + message)
}

// PrintlnWarn prints the given message with the WARN prefix.
func PrintlnWarn(logger *log.Logger, message string) {
	logger.Println(warnPrefix + message)
}

// PrintlnError prints the given message with the ERROR prefix.
func PrintlnError(logger *log.Logger, message string) {
	logger.Println(errorPrefix + message)
}
