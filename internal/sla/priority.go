package sla

import "strings"

// legacyPriorities maps display spellings still present in older rows onto
// canonical priority identifiers.
var legacyPriorities = map[string]string{
	"urgente": "urgent",
	"alta":    "high",
	"media":   "medium",
	"normal":  "medium",
	"baja":    "low",
}

// PriorityCandidates returns the spellings to try when matching a priority
// against configuration rows, in preference order: as given, capitalized,
// lower case, upper case, then the legacy mapping. Duplicates are removed so
// each spelling is tried once; the first configured hit wins.
func PriorityCandidates(p string) []string {
	p = strings.TrimSpace(p)
	if p == "" {
		return nil
	}
	lower := strings.ToLower(p)
	cands := []string{p, capitalize(lower), lower, strings.ToUpper(p)}
	if mapped, ok := legacyPriorities[lower]; ok {
		cands = append(cands, mapped)
	}
	seen := make(map[string]struct{}, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// NormalizePriority resolves an external priority string to its canonical
// identifier. Used once at the ingestion boundary so the rest of the engine
// only ever sees canonical values.
func NormalizePriority(p string) string {
	lower := strings.ToLower(strings.TrimSpace(p))
	if mapped, ok := legacyPriorities[lower]; ok {
		return mapped
	}
	return lower
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
