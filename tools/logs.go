package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gimsops/gims-mcp/gims"
)

// logLinePattern matches the "2026-01-11 04:23:33,350 [INFO] " prefix the
// log viewer prepends to every line.
var logLinePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} \[[^\]]+\] `)

// defaultEndMarkers stop log collection when seen in a line.
var defaultEndMarkers = []string{"END SCRIPT"}

type logInput struct {
	ScrID         int64    `json:"scr_id" jsonschema:"Script ID in GIMS"`
	Timeout       *int     `json:"timeout,omitempty" jsonschema:"Timeout in seconds (overrides the configured default)"`
	EndMarkers    []string `json:"end_markers,omitempty" jsonschema:"End markers to stop log collection. Default: ['END SCRIPT']"`
	FilterPattern string   `json:"filter_pattern,omitempty" jsonschema:"Regex to filter log lines (applied after end marker check)"`
	KeepTimestamp bool     `json:"keep_timestamp,omitempty" jsonschema:"Keep timestamp and log level in output (default: false)"`
}

func (s *Server) registerLogTools() {
	addTool(s, "get_script_execution_log",
		"Get script execution log via SSE stream. Waits for end marker or timeout. "+
			"Use this to collect script output after manual script execution in GIMS.",
		s.getScriptExecutionLog)
}

func (s *Server) getScriptExecutionLog(ctx context.Context, in logInput) (any, error) {
	timeout := s.logStreamTimeout
	if in.Timeout != nil && *in.Timeout > 0 {
		timeout = time.Duration(*in.Timeout) * time.Second
	}

	logURL, err := s.client.ScriptLogURL(ctx, in.ScrID)
	if err != nil {
		if errors.Is(err, gims.ErrNotFound) {
			return rawText(fmt.Sprintf("Error 404: Script with ID %d not found", in.ScrID)), nil
		}
		return nil, err
	}
	// tail=0 skips historical lines; without it the log viewer replays the
	// last 10.
	logURL = withTailZero(logURL)

	col := newLogCollector(s.limiter.MaxBytes(), in.EndMarkers, in.FilterPattern, in.KeepTimestamp)

	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err = s.client.StreamEvents(sctx, logURL, gims.StreamOptions{}, col.consume)

	var warnings []string
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		if !col.endMarker {
			warnings = append(warnings, fmt.Sprintf("WARNING: Timeout (%ds) reached without end marker", int(timeout.Seconds())))
		}
	default:
		warnings = append(warnings, "WARNING: SSE connection error: "+err.Error())
	}
	if col.sizeCapped {
		warnings = append(warnings, fmt.Sprintf("WARNING: Size limit (%dKB) reached", s.limiter.MaxBytes()/1024))
	}

	content := strings.Join(col.lines, "\n")
	if len(warnings) > 0 {
		content = strings.Join(warnings, "\n") + "\n\n" + content
	}
	if content == "" {
		content = "No log data received"
	}
	return rawText(content), nil
}

func withTailZero(logURL string) string {
	if strings.Contains(logURL, "?") {
		return logURL + "&tail=0"
	}
	return logURL + "?tail=0"
}

// logCollector accumulates filtered log lines from stream events up to a
// byte budget.
type logCollector struct {
	maxBytes      int
	markers       []string
	filter        func(string) bool
	keepTimestamp bool

	lines      []string
	size       int
	endMarker  bool
	sizeCapped bool
}

func newLogCollector(maxBytes int, markers []string, filterPattern string, keepTimestamp bool) *logCollector {
	if len(markers) == 0 {
		markers = defaultEndMarkers
	}
	return &logCollector{
		maxBytes:      maxBytes,
		markers:       markers,
		filter:        compileLineFilter(filterPattern),
		keepTimestamp: keepTimestamp,
	}
}

// compileLineFilter builds the line predicate. An empty pattern passes
// everything; a pattern that is not a valid regex matches as a literal
// substring.
func compileLineFilter(pattern string) func(string) bool {
	if pattern == "" {
		return func(string) bool { return true }
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return func(line string) bool { return strings.Contains(line, pattern) }
	}
	return func(line string) bool { return re.MatchString(line) }
}

// consume processes one stream event. Events are JSON objects with a
// "content" field; anything else is taken verbatim. It returns true when
// collection should stop.
func (c *logCollector) consume(data string) bool {
	content := data
	var ev struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(data), &ev); err == nil {
		content = ev.Content
	}
	if content == "" {
		return false
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		parsed := c.parseLine(line)

		// End markers are checked before filtering so a filtered-out
		// marker still terminates collection.
		if c.hasMarker(line) {
			c.endMarker = true
			if c.filter(parsed) {
				c.add(parsed)
			}
			return true
		}

		if !c.filter(parsed) {
			continue
		}
		if !c.add(parsed) {
			c.sizeCapped = true
			return true
		}
	}
	return false
}

func (c *logCollector) hasMarker(line string) bool {
	for _, m := range c.markers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// parseLine strips the timestamp and level prefix unless the caller asked
// to keep it.
func (c *logCollector) parseLine(line string) string {
	if c.keepTimestamp {
		return line
	}
	if loc := logLinePattern.FindStringIndex(line); loc != nil {
		return line[loc[1]:]
	}
	return line
}

// add appends a line if it fits the byte budget, reporting whether it was
// stored.
func (c *logCollector) add(line string) bool {
	lineSize := len(line) + 1
	if c.size+lineSize > c.maxBytes {
		return false
	}
	c.lines = append(c.lines, line)
	c.size += lineSize
	return true
}
