package gcode

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"gcodeview/pkg/errors"
	"gcodeview/pkg/log"
	"gcodeview/pkg/metrics"
)

// ProgressFunc is invoked periodically during a parse with the number of
// lines processed so far. It is purely informational; it must not touch
// the parser.
type ProgressFunc func(linesProcessed int)

// Result is the complete output of one parse pass.
type Result struct {
	Segments  []Segment
	Bounds    Bounds
	Tools     *ToolDirectory
	Lines     int
	Recovered int // count of locally recovered parse errors
}

// Parser is a streaming modal-state interpreter. A parse is a synchronous
// pass over the input; all parse errors are recovered locally and a parse
// always completes. The parser must be Reset (or freshly created) before
// each file; no state carries over.
type Parser struct {
	// Progress, when set, is called every ProgressEvery lines and once
	// at end of input.
	Progress      ProgressFunc
	ProgressEvery int

	state     State
	tools     *ToolDirectory
	segments  []Segment
	bounds    Bounds
	lineCount int
	recovered int

	// True while inside a "Required tools:" comment block.
	capturingTools bool

	words []Word // per-line scratch, reused across lines

	logger *log.Logger
	stats  *metrics.ViewerMetrics
}

// NewParser creates a parser with default settings.
func NewParser() *Parser {
	p := &Parser{
		ProgressEvery: 1000,
		logger:        log.GetLogger("gcode"),
		stats:         metrics.Default(),
	}
	p.Reset()
	return p
}

// Reset clears all modal and accumulated state so the parser can be
// reused for another file. Previously returned Results keep their data.
func (p *Parser) Reset() {
	p.state.Reset()
	p.tools = NewToolDirectory()
	p.segments = nil
	p.bounds = NewBounds()
	p.lineCount = 0
	p.recovered = 0
	p.capturingTools = false
}

// ParseString interprets a complete G-code text.
func (p *Parser) ParseString(text string) *Result {
	res, _ := p.Parse(strings.NewReader(text))
	return res
}

// Parse interprets G-code from r line by line. The only error returned is
// a read failure from r; malformed G-code never fails a parse.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	start := time.Now()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		p.parseLine(scanner.Text(), lineNum)
		if p.Progress != nil && p.ProgressEvery > 0 && lineNum%p.ProgressEvery == 0 {
			p.Progress(lineNum)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gcode: reading input: %w", err)
	}
	p.lineCount = lineNum
	if p.Progress != nil {
		p.Progress(lineNum)
	}

	p.stats.LinesTotal.Add(nil, uint64(lineNum))
	p.stats.ParseDurationSeconds.Set(nil, time.Since(start).Seconds())

	p.logger.WithField("lines", lineNum).
		WithField("segments", len(p.segments)).
		Debug("parse complete")

	return &Result{
		Segments:  p.segments,
		Bounds:    p.bounds,
		Tools:     p.tools,
		Lines:     p.lineCount,
		Recovered: p.recovered,
	}, nil
}

// parseLine interprets a single line, mutating the modal state and
// appending zero or more segments.
func (p *Parser) parseLine(line string, lineNum int) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		// A blank line terminates a tool-list comment block.
		p.capturingTools = false
		return
	}

	if trimmed[0] == ';' || trimmed[0] == '(' {
		p.handleComment(commentText(trimmed), lineNum)
		return
	}

	// Code resumes; any open tool-list block is over.
	p.capturingTools = false

	code, comment := stripInlineComments(trimmed)

	p.words = scanWords(code, p.words[:0])
	if len(p.words) == 0 {
		return
	}

	// Convention-based manual tool change: an M0 stop whose comment
	// mentions "tool" advances the tool before any coordinate words on
	// the same line are applied.
	if v, ok := wordValue(p.words, 'M'); ok && int(v) == 0 &&
		strings.Contains(strings.ToLower(comment), "tool") {
		p.state.Tool++
		p.state.PendingChange = ManualToolChange
	}

	for _, w := range p.words {
		switch w.Letter {
		case 'G':
			p.dispatchG(int(w.Value), lineNum)
		case 'M':
			if int(w.Value) == 6 {
				p.state.PendingChange = AutomaticToolChange
			}
			// All other M codes are ignored.
		case 'T':
			p.state.Tool = p.tools.ResolveTool(int(w.Value))
		case 'F':
			p.state.FeedRate = w.Value
		}
	}
}

// dispatchG applies one G word. Unknown codes are ignored silently.
func (p *Parser) dispatchG(code, lineNum int) {
	switch code {
	case 0:
		p.linearMove(Rapid, lineNum)
	case 1:
		p.linearMove(Cut, lineNum)
	case 2:
		p.arcMove(true, lineNum)
	case 3:
		p.arcMove(false, lineNum)
	case 17:
		p.state.Plane = PlaneXY
	case 18:
		p.state.Plane = PlaneZX
	case 19:
		p.state.Plane = PlaneYZ
	case 20:
		p.state.Units = Inches
	case 21:
		p.state.Units = Millimeters
	case 90:
		p.state.PositionMode = Absolute
	case 91:
		p.state.PositionMode = Relative
	}
}

// linearMove handles G0/G1. Axes absent from the line retain their prior
// value; a zero-displacement move emits nothing.
func (p *Parser) linearMove(kind SegmentKind, lineNum int) {
	target := p.applyAxisWords(p.state.Position)
	if target == p.state.Position {
		return
	}

	p.emit(Segment{
		Kind:       kind,
		Start:      p.state.Position,
		End:        target,
		FeedRate:   p.state.FeedRate,
		Tool:       p.state.Tool,
		ToolChange: p.state.takeChange(),
		SourceLine: lineNum,
	})
	p.state.Position = target
}

// applyAxisWords computes the move target from X/Y/Z words against the
// current positioning mode.
func (p *Parser) applyAxisWords(current Position) Position {
	target := current
	if v, ok := wordValue(p.words, 'X'); ok {
		if p.state.PositionMode == Absolute {
			target.X = v
		} else {
			target.X += v
		}
	}
	if v, ok := wordValue(p.words, 'Y'); ok {
		if p.state.PositionMode == Absolute {
			target.Y = v
		} else {
			target.Y += v
		}
	}
	if v, ok := wordValue(p.words, 'Z'); ok {
		if p.state.PositionMode == Absolute {
			target.Z = v
		} else {
			target.Z += v
		}
	}
	return target
}

// emit appends a segment and folds its endpoint into the bounds.
func (p *Parser) emit(seg Segment) {
	p.segments = append(p.segments, seg)
	p.stats.SegmentsTotal.Inc(metrics.Labels{"kind": seg.Kind.String()})

	if !p.bounds.Extend(seg.End) {
		err := errors.BadCoordinateError(seg.SourceLine, "endpoint", seg.End.X)
		p.recover(err)
	}
}

// recover records a locally recovered parse error.
func (p *Parser) recover(err *errors.Error) {
	p.recovered++
	p.stats.ParseErrorsTotal.Inc(metrics.Labels{"code": string(err.Code)})
	p.logger.WithField("line", err.Line).Warn("%s", err.Message)
}

// handleComment processes a comment-only line: tool-list blocks and
// inline tool tags.
func (p *Parser) handleComment(text string, lineNum int) {
	if loc := requiredToolsRe.FindStringIndex(text); loc != nil {
		p.capturingTools = true
		if rest := strings.TrimSpace(text[loc[1]:]); rest != "" {
			p.tools.addSequential(rest)
		}
		return
	}

	if p.capturingTools {
		desc := strings.TrimSpace(text)
		if desc == "" {
			p.capturingTools = false
			return
		}
		p.tools.addSequential(desc)
		return
	}

	if m := inlineToolRe.FindStringSubmatch(text); m != nil {
		number := 0
		for _, c := range m[1] {
			number = number*10 + int(c-'0')
		}
		p.tools.addInline(number, m[2])
	}
}

// commentText extracts the comment body from a comment-only line.
func commentText(line string) string {
	if line[0] == ';' {
		return line[1:]
	}
	// Paren comment: text up to the closing paren, or end of line.
	body := line[1:]
	if end := strings.IndexByte(body, ')'); end >= 0 {
		body = body[:end]
	}
	return body
}

// stripInlineComments removes trailing ";" comments and embedded "(...)"
// comments from a code line, returning the remaining code and the
// concatenated comment text. Inline comments never register tools; their
// text only feeds the manual tool change heuristic.
func stripInlineComments(line string) (code, comment string) {
	var comments []string

	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		comments = append(comments, line[idx+1:])
		line = line[:idx]
	}

	for {
		open := strings.IndexByte(line, '(')
		if open < 0 {
			break
		}
		rest := line[open+1:]
		close := strings.IndexByte(rest, ')')
		if close < 0 {
			comments = append(comments, rest)
			line = line[:open]
			break
		}
		comments = append(comments, rest[:close])
		line = line[:open] + " " + rest[close+1:]
	}

	return strings.TrimSpace(line), strings.Join(comments, " ")
}
