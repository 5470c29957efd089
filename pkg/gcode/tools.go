package gcode

import (
	"fmt"
	"regexp"
	"strings"
)

// ToolEntry describes one registry slot.
type ToolEntry struct {
	Number int
	Name   string
	Color  string // "#RRGGBB", empty when no explicit color was captured
}

// Default palette of visually distinct hues, indexed by tool number when
// no explicit color was captured.
var defaultPalette = []string{
	"#4FC3F7", // light blue
	"#FF8A65", // orange
	"#81C784", // green
	"#BA68C8", // purple
	"#FFD54F", // amber
	"#E57373", // red
	"#4DB6AC", // teal
	"#F06292", // pink
}

var (
	requiredToolsRe = regexp.MustCompile(`(?i)required\s+tools?\s*:`)
	inlineToolRe    = regexp.MustCompile(`(?i)^\s*tool\s+(\d+)\s*:\s*(.+)$`)
	trailingColorRe = regexp.MustCompile(`\s*(#[0-9a-fA-F]{6})\s*$`)
)

// ToolDirectory accumulates tool names and colors from the two comment
// conventions. The two numbering regimes are mutually exclusive per file:
//
//   - sequential: tool number N maps to registry slot N-1, built from the
//     ordered descriptions of a "Required tools:" comment block.
//   - inline: slots are assigned in first-seen order of "(Tool N: name)"
//     comments, with a synthetic "No Tool" slot 0. Repeat occurrences of
//     the same N get an ordinal suffix and extend an ordered slot list
//     consumed by T words.
//
// The first inline tag seen flips the directory to the inline regime for
// the remainder of the parse.
type ToolDirectory struct {
	entries []ToolEntry
	inline  bool

	// Inline regime bookkeeping
	slotsByNumber map[int][]int // program tool number -> ordered slot indices
	nextSlot      map[int]int   // program tool number -> next unused entry in slotsByNumber
	occurrences   map[int]int   // program tool number -> tags seen
}

// NewToolDirectory creates an empty directory.
func NewToolDirectory() *ToolDirectory {
	return &ToolDirectory{
		slotsByNumber: make(map[int][]int),
		nextSlot:      make(map[int]int),
		occurrences:   make(map[int]int),
	}
}

// Reset clears all captured tools and returns to the sequential regime.
func (d *ToolDirectory) Reset() {
	d.entries = d.entries[:0]
	d.inline = false
	d.slotsByNumber = make(map[int][]int)
	d.nextSlot = make(map[int]int)
	d.occurrences = make(map[int]int)
}

// IsInlineRegime reports whether an inline tool tag has been seen.
func (d *ToolDirectory) IsInlineRegime() bool {
	return d.inline
}

// Len returns the number of registry slots.
func (d *ToolDirectory) Len() int {
	return len(d.entries)
}

// Entries returns a copy of the registry slots in order.
func (d *ToolDirectory) Entries() []ToolEntry {
	out := make([]ToolEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// splitColor extracts a trailing #RRGGBB token from a description,
// returning the stripped name and the color (or "").
func splitColor(desc string) (name, color string) {
	if m := trailingColorRe.FindStringSubmatch(desc); m != nil {
		return strings.TrimSpace(strings.TrimSuffix(desc, m[0])), m[1]
	}
	return strings.TrimSpace(desc), ""
}

// addSequential appends one description from a "Required tools:" block.
// Slot i describes tool number i+1.
func (d *ToolDirectory) addSequential(desc string) {
	name, color := splitColor(desc)
	d.entries = append(d.entries, ToolEntry{
		Number: len(d.entries) + 1,
		Name:   name,
		Color:  color,
	})
}

// addInline registers a "(Tool N: name)" tag, flipping the directory to
// the inline regime on first use.
func (d *ToolDirectory) addInline(number int, desc string) {
	if !d.inline {
		d.inline = true
		// Seed the synthetic slot 0; anything captured sequentially
		// before the flip is shifted up, preserving its order.
		d.entries = append([]ToolEntry{{Number: 0, Name: "No Tool"}}, d.entries...)
	}

	name, color := splitColor(desc)
	d.occurrences[number]++
	if n := d.occurrences[number]; n > 1 {
		name = fmt.Sprintf("%s (%d)", name, n)
	}

	slot := len(d.entries)
	d.entries = append(d.entries, ToolEntry{Number: number, Name: name, Color: color})
	d.slotsByNumber[number] = append(d.slotsByNumber[number], slot)
}

// ResolveTool maps a T-word program tool number to the tool value carried
// on segments. In the inline regime each T consumes the next unused slot
// registered for that number (beyond that, the last slot is reused); in
// the sequential regime the number is used directly.
func (d *ToolDirectory) ResolveTool(number int) int {
	if !d.inline {
		return number
	}
	slots := d.slotsByNumber[number]
	if len(slots) == 0 {
		return number
	}
	i := d.nextSlot[number]
	if i >= len(slots) {
		i = len(slots) - 1
	} else {
		d.nextSlot[number] = i + 1
	}
	return slots[i]
}

// NameFor returns the display name for a segment tool value.
func (d *ToolDirectory) NameFor(tool int) string {
	if e, ok := d.entry(tool); ok {
		return e.Name
	}
	if tool == 0 {
		return "No Tool"
	}
	return fmt.Sprintf("Tool %d", tool)
}

// ColorFor returns the display color for a segment tool value, falling
// back to a fixed palette when no explicit color was captured.
func (d *ToolDirectory) ColorFor(tool int) string {
	if e, ok := d.entry(tool); ok && e.Color != "" {
		return e.Color
	}
	idx := tool % len(defaultPalette)
	if idx < 0 {
		idx += len(defaultPalette)
	}
	return defaultPalette[idx]
}

func (d *ToolDirectory) entry(tool int) (ToolEntry, bool) {
	idx := tool
	if !d.inline {
		idx = tool - 1
	}
	if idx < 0 || idx >= len(d.entries) {
		return ToolEntry{}, false
	}
	return d.entries[idx], true
}
