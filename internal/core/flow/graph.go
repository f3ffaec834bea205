package flow

import "strings"

// Mode selects which marginal an estimate reproduces exactly.
type Mode int

const (
	PreserveBefore Mode = iota
	PreserveAfter
)

func (m Mode) String() string {
	if m == PreserveAfter {
		return "after"
	}
	return "before"
}

// ParseMode accepts "before"/"after" in a few spellings. Anything else,
// including the empty string, yields PreserveBefore.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "after", "preserve-after", "preserve_after", "preserveafter":
		return PreserveAfter
	default:
		return PreserveBefore
	}
}

// Edge is an estimated transition from a Before label to an After label.
// Weight is always > 0.
type Edge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Weight     float64 `json:"weight"`
	Annotation string  `json:"annotation"`
}

// Graph is the bipartite flow estimate for one report invocation.
type Graph struct {
	Mode   Mode     `json:"-"`
	Before []string `json:"before"`
	After  []string `json:"after"`
	Edges  []Edge   `json:"edges"`
}

// OutFlow sums the weights leaving a Before label.
func (g *Graph) OutFlow(before string) float64 {
	total := 0.0
	for _, e := range g.Edges {
		if e.Source == before {
			total += e.Weight
		}
	}
	return total
}

// InFlow sums the weights arriving at an After label.
func (g *Graph) InFlow(after string) float64 {
	total := 0.0
	for _, e := range g.Edges {
		if e.Target == after {
			total += e.Weight
		}
	}
	return total
}

const (
	BeforeColor = "#8DD3C7"
	AfterColor  = "#FB8072"
)

// Link references nodes by index into Sankey.Labels.
type Link struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
	Label  string  `json:"label"`
}

// Sankey is the node/link layout handed to a diagram renderer.
type Sankey struct {
	Labels []string `json:"labels"`
	Colors []string `json:"colors"`
	Groups []string `json:"groups"`
	Links  []Link   `json:"links"`
}

func (g *Graph) Sankey() Sankey {
	n := len(g.Before) + len(g.After)
	s := Sankey{
		Labels: make([]string, 0, n),
		Colors: make([]string, 0, n),
		Groups: make([]string, 0, n),
		Links:  make([]Link, 0, len(g.Edges)),
	}

	beforeIdx := make(map[string]int, len(g.Before))
	for i, label := range g.Before {
		beforeIdx[label] = i
		s.Labels = append(s.Labels, "Before: "+label)
		s.Colors = append(s.Colors, BeforeColor)
		s.Groups = append(s.Groups, "before")
	}
	afterIdx := make(map[string]int, len(g.After))
	for i, label := range g.After {
		afterIdx[label] = len(g.Before) + i
		s.Labels = append(s.Labels, "After: "+label)
		s.Colors = append(s.Colors, AfterColor)
		s.Groups = append(s.Groups, "after")
	}

	for _, e := range g.Edges {
		s.Links = append(s.Links, Link{
			Source: beforeIdx[e.Source],
			Target: afterIdx[e.Target],
			Value:  e.Weight,
			Label:  e.Annotation,
		})
	}
	return s
}

// ComparisonRow is one label of the side-by-side fallback view.
type ComparisonRow struct {
	Label  string  `json:"label"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// Compare lists the union of labels, Before labels first, with each side's
// mass. A side that lacks the label reports 0.
func Compare(before, after *Marginal) []ComparisonRow {
	rows := make([]ComparisonRow, 0, before.Len()+after.Len())
	seen := make(map[string]bool)
	for _, label := range before.Labels() {
		seen[label] = true
		rows = append(rows, ComparisonRow{Label: label, Before: before.Mass(label), After: after.Mass(label)})
	}
	for _, label := range after.Labels() {
		if seen[label] {
			continue
		}
		rows = append(rows, ComparisonRow{Label: label, After: after.Mass(label)})
	}
	return rows
}
