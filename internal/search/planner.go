// internal/search/planner.go
package search

import (
	"regexp"
	"strings"

	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"
)

// Planner normalizes a free-text search term and expands it into the query
// variants and title-matching patterns a run dispatches with.
type Planner struct {
	logger logger.Logger
}

func NewPlanner(log logger.Logger) *Planner {
	return &Planner{
		logger: log.WithFields(map[string]interface{}{"component": "planner"}),
	}
}

// modelCodeRe matches compact model codes like "530", "MB.05", "MR530",
// "9060" inside a query.
var modelCodeRe = regexp.MustCompile(`(?i)\b[a-z]{0,3}\d{2,4}(\.\d{1,2})?\b`)

// genericTokens never help a site search narrow down sneaker listings.
var genericTokens = map[string]bool{
	"sneaker":  true,
	"sneakers": true,
	"shoe":     true,
	"shoes":    true,
}

// nicknameTokens are athlete nicknames that storefront searches index poorly.
// They are only safe to strip when a model code is present, otherwise the
// nickname may be the entire query.
var nicknameTokens = map[string]bool{
	"lamelo": true,
	"melo":   true,
}

// Simplify strips tokens that reduce site-search precision from rawQuery.
func (p *Planner) Simplify(rawQuery string) string {
	hasCode := modelCodeRe.MatchString(rawQuery)

	var kept []string
	for _, tok := range strings.Fields(rawQuery) {
		key := strings.ToLower(strings.Trim(tok, ".,"))
		if genericTokens[key] {
			continue
		}
		if hasCode && nicknameTokens[key] {
			continue
		}
		kept = append(kept, tok)
	}

	simplified := strings.Join(kept, " ")
	if simplified == "" {
		// Never destroy the query outright.
		return rawQuery
	}
	return simplified
}

// ExpandVariants produces the distinct dispatch strings for a query. A single
// input may fan out to the un-simplified and simplified forms.
func (p *Planner) ExpandVariants(q models.Query) []string {
	full := strings.TrimSpace(strings.TrimSpace(q.Brand) + " " + strings.TrimSpace(q.Model))
	variants := []string{full}

	if simplified := p.Simplify(full); !strings.EqualFold(simplified, full) {
		variants = append(variants, simplified)
	}

	p.logger.Debug("expanded query variants", map[string]interface{}{
		"query":    full,
		"variants": variants,
	})
	return variants
}

// separatorClass is the optional-separator wildcard substituted for literal
// dots and spaces so "MB.05", "MB 05" and "MB05" all match one pattern.
const separatorClass = `[. \-]?`

// codeTokenRe extracts a compact model code, optionally with a short
// alphabetic prefix and separator, like "530", "MR530" or "MB.05".
var codeTokenRe = regexp.MustCompile(`(?i)\b[a-z]{0,3}[.\- ]?\d{2,4}(\.\d{1,2})?\b`)

// nonModelLeadWords never discriminate between models and are stripped from
// the front of a model string before matching.
var nonModelLeadWords = map[string]bool{
	"new":      true,
	"retro":    true,
	"og":       true,
	"classic":  true,
	"original": true,
}

// modelAliases maps a core model to extra title strings accepted as that
// model. One storefront lists the MB.05 under its collab name only, never
// the code itself.
var modelAliases = map[string][]string{
	"mb.05": {"space jam"},
}

// CoreModel strips known non-model lead words from the model string.
func CoreModel(model string) string {
	tokens := strings.Fields(model)
	for len(tokens) > 0 && nonModelLeadWords[strings.ToLower(tokens[0])] {
		tokens = tokens[1:]
	}
	return strings.Join(tokens, " ")
}

// AliasesFor returns the alternate title strings accepted for a core model.
func AliasesFor(core string) []string {
	return modelAliases[strings.ToLower(core)]
}

// BuildMatchPatterns converts each comma-separated target term into
// case-insensitive patterns used to pre-filter a worker's raw list. This is
// an optimization ahead of the heavier pipeline, never a correctness gate,
// so the pattern set must accept everything the pipeline would: terms are
// simplified down to their most discriminative token (the model code when
// one exists) and known model aliases get patterns of their own. A term
// with no usable core disables filtering entirely.
func (p *Planner) BuildMatchPatterns(targets string) []*regexp.Regexp {
	var patterns []*regexp.Regexp
	for _, term := range strings.Split(targets, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}

		core := CoreModel(p.Simplify(term))
		if core == "" {
			return nil
		}
		if code := codeTokenRe.FindString(core); code != "" {
			core = code
		}

		for _, candidate := range append([]string{core}, AliasesFor(core)...) {
			if re, err := regexp.Compile(termToPattern(candidate)); err == nil {
				patterns = append(patterns, re)
			} else {
				p.logger.Warn("unbuildable match pattern", map[string]interface{}{
					"term":  candidate,
					"error": err.Error(),
				})
			}
		}
	}
	return patterns
}

// MatchesAny reports whether text matches at least one pattern. An empty
// pattern set matches everything.
func MatchesAny(text string, patterns []*regexp.Regexp) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func termToPattern(term string) string {
	var b strings.Builder
	b.WriteString(`(?i)`)
	for _, r := range term {
		switch r {
		case '.', ' ':
			b.WriteString(separatorClass)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// DedupeWords removes doubled tokens (case-insensitive) from a model string
// before it is handed to a worker, so "Dunk Dunk Low" does not produce a
// degenerate site-search query.
func DedupeWords(s string) string {
	seen := make(map[string]bool)
	var kept []string
	for _, tok := range strings.Fields(s) {
		key := strings.ToLower(tok)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}
