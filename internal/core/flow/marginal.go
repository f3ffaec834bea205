package flow

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeLabel trims surrounding whitespace and title-cases an event label,
// so " swap " and "SWAP" both become "Swap".
func NormalizeLabel(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	// Casers keep state between calls and are not safe to share.
	return cases.Title(language.Und).String(trimmed)
}

// Marginal is the aggregate mass per event label for one side of an
// interaction. Labels keep the order in which they were first added.
type Marginal struct {
	labels []string
	mass   map[string]float64
}

func NewMarginal() *Marginal {
	return &Marginal{mass: make(map[string]float64)}
}

// MarginalOf builds a Marginal from parallel label/mass slices, in order.
func MarginalOf(labels []string, masses []float64) (*Marginal, error) {
	if len(labels) != len(masses) {
		return nil, fmt.Errorf("marginal: %d labels but %d masses", len(labels), len(masses))
	}
	m := NewMarginal()
	for i := range labels {
		if err := m.Add(labels[i], masses[i]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add accumulates mass under the normalized label.
func (m *Marginal) Add(label string, mass float64) error {
	norm := NormalizeLabel(label)
	if norm == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidMass)
	}
	if math.IsNaN(mass) || math.IsInf(mass, 0) || mass < 0 {
		return fmt.Errorf("%w: %q has mass %v", ErrInvalidMass, norm, mass)
	}
	if _, seen := m.mass[norm]; !seen {
		m.labels = append(m.labels, norm)
	}
	m.mass[norm] += mass
	return nil
}

// Labels returns the normalized labels in first-seen order.
func (m *Marginal) Labels() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

func (m *Marginal) Mass(label string) float64 {
	if m == nil {
		return 0
	}
	return m.mass[NormalizeLabel(label)]
}

func (m *Marginal) Len() int {
	if m == nil {
		return 0
	}
	return len(m.labels)
}

func (m *Marginal) Total() float64 {
	if m == nil {
		return 0
	}
	total := 0.0
	for _, l := range m.labels {
		total += m.mass[l]
	}
	return total
}
