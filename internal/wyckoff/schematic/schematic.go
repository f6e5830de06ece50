// Package schematic matches a campaign's detected pattern sequence
// against the classic Wyckoff schematic templates, surfaced as a
// supplementary confidence score alongside phase classification.
package schematic

import (
	"github.com/jthadison/wyckvol/internal/wyckoff/patterns"
)

// Type names a Wyckoff schematic template.
type Type string

const (
	Accumulation1 Type = "ACCUMULATION_1"
	Accumulation2 Type = "ACCUMULATION_2"
	Distribution1 Type = "DISTRIBUTION_1"
	Distribution2 Type = "DISTRIBUTION_2"
)

// expectedSequences lists the pattern kinds each accumulation schematic
// expects, in the long-only scope of this module. Distribution1 and
// Distribution2 have no entry here, so MatchAll never returns them.
var expectedSequences = map[Type][]patterns.Kind{
	Accumulation1: {patterns.KindSpring, patterns.KindAR, patterns.KindST, patterns.KindSOS},
	Accumulation2: {patterns.KindAR, patterns.KindST, patterns.KindLPS, patterns.KindSOS},
}

// criticalPattern is the kind whose presence earns a schematic its
// confidence bonus.
var criticalPattern = map[Type]patterns.Kind{
	Accumulation1: patterns.KindSpring,
	Accumulation2: patterns.KindLPS,
}

// minMatchConfidence is the floor below which no schematic match is
// reported.
const minMatchConfidence = 60

// maxMatchConfidence caps reported confidence; perfect matches are rare
// on real data.
const maxMatchConfidence = 95

// Match is a schematic template matched against a pattern sequence.
type Match struct {
	Schematic  Type
	Confidence int // [60,95]
}

// MatchAll scores every known schematic against the given pattern
// sequence and returns the best match, or nil if none clears the
// confidence floor.
func MatchAll(ps []patterns.Pattern) *Match {
	kinds := make(map[patterns.Kind]bool, len(ps))
	for _, p := range ps {
		kinds[p.Kind()] = true
	}

	var best *Match
	for schematicType, expected := range expectedSequences {
		confidence := confidenceFor(kinds, schematicType, expected)
		if confidence < minMatchConfidence {
			continue
		}
		if best == nil || confidence > best.Confidence {
			best = &Match{Schematic: schematicType, Confidence: confidence}
		}
	}
	return best
}

func confidenceFor(kinds map[patterns.Kind]bool, schematicType Type, expected []patterns.Kind) int {
	matched := 0
	for _, k := range expected {
		if kinds[k] {
			matched++
		}
	}
	base := float64(matched) / float64(len(expected)) * 100

	if critical, ok := criticalPattern[schematicType]; ok && kinds[critical] {
		base += 10
	}

	if base > maxMatchConfidence {
		base = maxMatchConfidence
	}
	return int(base)
}
