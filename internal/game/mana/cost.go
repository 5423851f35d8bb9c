package mana

import (
	"fmt"
	"strings"
)

// Cost represents a parsed mana cost.
type Cost struct {
	Generic   int
	White     int
	Blue      int
	Black     int
	Red       int
	Green     int
	Colorless int
}

// ParseCost parses a mana cost string such as "2RR" or "WUB".
// The string is scanned left to right: digit runs accumulate into the
// generic requirement, single letters (W, U, B, R, G, C) into the
// per-color requirements. Anything else is an error.
func ParseCost(costStr string) (*Cost, error) {
	cost := &Cost{}
	digits := 0
	pendingDigits := false

	flush := func() {
		if pendingDigits {
			cost.Generic += digits
			digits = 0
			pendingDigits = false
		}
	}

	for _, r := range strings.ToUpper(strings.TrimSpace(costStr)) {
		switch {
		case r >= '0' && r <= '9':
			digits = digits*10 + int(r-'0')
			pendingDigits = true
		case r == 'W':
			flush()
			cost.White++
		case r == 'U':
			flush()
			cost.Blue++
		case r == 'B':
			flush()
			cost.Black++
		case r == 'R':
			flush()
			cost.Red++
		case r == 'G':
			flush()
			cost.Green++
		case r == 'C':
			flush()
			cost.Colorless++
		default:
			return nil, fmt.Errorf("unknown mana symbol %q in cost %q", r, costStr)
		}
	}
	flush()

	return cost, nil
}

// ColoredTotal returns the sum of all colored and colorless requirements.
func (c *Cost) ColoredTotal() int {
	return c.White + c.Blue + c.Black + c.Red + c.Green + c.Colorless
}

// ConvertedTotal returns the converted cost (generic plus colored).
func (c *Cost) ConvertedTotal() int {
	return c.Generic + c.ColoredTotal()
}

// IsFree reports whether the cost requires no mana at all.
func (c *Cost) IsFree() bool {
	return c.ConvertedTotal() == 0
}

// String renders the cost back into its compact form.
func (c *Cost) String() string {
	var sb strings.Builder
	if c.Generic > 0 {
		fmt.Fprintf(&sb, "%d", c.Generic)
	}
	sb.WriteString(strings.Repeat("W", c.White))
	sb.WriteString(strings.Repeat("U", c.Blue))
	sb.WriteString(strings.Repeat("B", c.Black))
	sb.WriteString(strings.Repeat("R", c.Red))
	sb.WriteString(strings.Repeat("G", c.Green))
	sb.WriteString(strings.Repeat("C", c.Colorless))
	if sb.Len() == 0 {
		return "0"
	}
	return sb.String()
}
