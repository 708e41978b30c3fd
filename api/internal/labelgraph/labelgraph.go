// Package labelgraph converts CROHME symbol-layout label graphs into LaTeX.
//
// A label graph is a space separated sequence of symbols and spatial
// relations, for example "x Sup 2 NoRel + Right y". Relations open groups
// (Sub, Sup, Below, Inside, Above) that NoRel closes; groups left open at
// the end are closed.
package labelgraph

import "strings"

const (
	relRight  = "Right"
	relNoRel  = "NoRel"
	relSup    = "Sup"
	relSub    = "Sub"
	relBelow  = "Below"
	relInside = "Inside"
	relAbove  = "Above"
	relComma  = "COMMA"

	fracStart = "\x00frac-start"
	fracMid   = "\x00frac-mid"
	fracEnd   = "\x00frac-end"

	// group marker pushed by Above, closed into a denominator by NoRel
	openFrac = `\frac`
)

var relations = map[string]bool{
	relRight: true, relNoRel: true, relSup: true, relSub: true,
	relBelow: true, relInside: true, relAbove: true, relComma: true,
}

// ToLaTeX converts a label graph to LaTeX.
func ToLaTeX(labelGraph string) string {
	labels := expandFractions(strings.Fields(labelGraph))

	var (
		b     strings.Builder
		stack []string
	)
	peek := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1]
	}
	pop := func() {
		if len(stack) > 0 {
			stack = stack[:len(stack)-1]
		}
	}

	for _, label := range labels {
		switch label {
		case fracStart:
			b.WriteString(`\frac{`)
		case fracMid:
			b.WriteString("}{")
		case fracEnd:
			b.WriteString("}")
		case relRight:
			b.WriteString(" ")
		case relSub:
			b.WriteString("_{")
			stack = append(stack, relSub)
		case relSup:
			b.WriteString("^{")
			stack = append(stack, relSup)
		case relComma:
			b.WriteString(",")
		case relAbove:
			b.WriteString(`\frac{`)
			stack = append(stack, openFrac)
		case relInside:
			b.WriteString("{")
			stack = append(stack, relInside)
		case relBelow:
			b.WriteString("_{")
			stack = append(stack, relBelow)
		case relNoRel:
			switch peek() {
			case openFrac:
				b.WriteString("}{")
				pop()
				stack = append(stack, relNoRel)
			case relBelow, relInside, relSub, relSup, relNoRel:
				b.WriteString("}")
				pop()
			default:
				b.WriteString(" ")
			}
		case "{", "}":
			// braces come from the relations, never from the symbols
		default:
			b.WriteString(label)
		}
	}
	for range stack {
		b.WriteString("}")
	}
	return b.String()
}

// expandFractions rewrites "num NoRel - Below denom" into explicit fraction
// markers before the main pass.
func expandFractions(labels []string) []string {
	out := make([]string, 0, len(labels))
	for j := 0; j < len(labels); {
		if j+4 < len(labels) &&
			!relations[labels[j]] &&
			labels[j+1] == relNoRel &&
			labels[j+2] == "-" &&
			labels[j+3] == relBelow &&
			!relations[labels[j+4]] {
			out = append(out, fracStart, labels[j], fracMid, labels[j+4], fracEnd)
			j += 5
			continue
		}
		out = append(out, labels[j])
		j++
	}
	return out
}
