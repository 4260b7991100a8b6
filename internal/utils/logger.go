package utils

import (
	"log"
	"strings"

	"github.com/fatih/color"
)

var (
	moduleTag = color.New(color.FgCyan, color.Bold).SprintFunc()
	warnTag   = color.New(color.FgYellow, color.Bold).SprintFunc()
)

// LogEvent prints standardized log line with module/action/request_id.
// Avoid logging sensitive payload; message should be summarized.
func LogEvent(requestID, module, action, message string) {
	req := strings.TrimSpace(requestID)
	log.Printf("%s action=%s request_id=%s msg=%s", moduleTag("["+strings.ToUpper(module)+"]"), action, req, message)
}

// LogWarn is LogEvent for failures that do not abort the request.
func LogWarn(requestID, module, action, message string) {
	req := strings.TrimSpace(requestID)
	log.Printf("%s action=%s request_id=%s warn=%s", warnTag("["+strings.ToUpper(module)+"]"), action, req, message)
}
