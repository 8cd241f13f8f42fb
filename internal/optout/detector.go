package optout

import (
	"regexp"
	"strings"
)

// Command is a reserved keyword recognized before any stage logic.
type Command int

const (
	CommandNone Command = iota
	CommandStop
	CommandStart
	CommandHelp
	CommandReset
)

// Detector identifies STOP/START/HELP/RESET keywords in inbound
// messages, including the common Hindi/Marathi transliterations.
type Detector struct {
	stopRegex  *regexp.Regexp
	startRegex *regexp.Regexp
	helpRegex  *regexp.Regexp
	resetRegex *regexp.Regexp
}

// NewDetector returns a keyword detector with sane defaults.
func NewDetector() *Detector {
	return &Detector{
		stopRegex:  regexp.MustCompile(`(?i)^(?:please\s+)?(stop|stopall|unsubscribe|cancel|end|quit|band\s*karo|बंद करो)\b`),
		startRegex: regexp.MustCompile(`(?i)^(?:please\s+)?(start|unstop|subscribe|shuru\s*karo|शुरू करो)\b`),
		helpRegex:  regexp.MustCompile(`(?i)^(?:please\s+)?(help|info|madad|मदद)\b`),
		resetRegex: regexp.MustCompile(`(?i)^(?:please\s+)?(reset|restart)\b`),
	}
}

// Detect returns the first reserved command matching body, or
// CommandNone. STOP is checked first so "stop and restart" opts out.
func (d *Detector) Detect(body string) Command {
	if d == nil {
		return CommandNone
	}
	body = strings.TrimSpace(body)
	switch {
	case d.stopRegex.MatchString(body):
		return CommandStop
	case d.startRegex.MatchString(body):
		return CommandStart
	case d.helpRegex.MatchString(body):
		return CommandHelp
	case d.resetRegex.MatchString(body):
		return CommandReset
	}
	return CommandNone
}
