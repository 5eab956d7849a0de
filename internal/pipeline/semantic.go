// internal/pipeline/semantic.go
package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"
	"sneakscout/internal/search"
)

// Gender is the inferred gender intent of a query.
type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderUnisex Gender = "unisex"
)

// MenMatchOnUnmarked is the default for the asymmetric gender rule: a title
// carrying no gender token at all counts as a men's listing. Kept as a named
// policy so tests can assert on it directly.
const MenMatchOnUnmarked = true

// titleBlacklist lists non-footwear nouns, including Hebrew storefront
// vocabulary, that disqualify a listing outright.
var titleBlacklist = []string{
	"sandal", "sandals", "slide", "slides", "flip flop", "crocs",
	"slipper", "slippers",
	"shirt", "t-shirt", "tee", "hoodie", "jacket", "pants", "shorts",
	"socks", "cap", "hat",
	"bag", "backpack", "wallet",
	"סנדל", "סנדלים", "כפכף", "כפכפים", "חולצה", "מכנס", "מכנסיים",
	"מעיל", "תיק", "גרביים", "כובע",
}

// junkKeywords mark accessories that mention a shoe model without being one.
var junkKeywords = []string{
	"laces", "shoelace", "shoelaces", "insole", "insoles",
	"cleaning kit", "cleaner", "protector", "deodorizer", "crease",
	"שרוכים", "מדרס", "מדרסים", "ערכת ניקוי",
}

// footwearKeywords rescue accessory-flagged titles that clearly are shoes.
var footwearKeywords = []string{
	"shoe", "shoes", "sneaker", "sneakers", "trainer", "trainers",
	"runner", "basketball",
	"נעל", "נעלי", "נעליים", "סניקרס",
}

var (
	// Hebrew tokens carry no \b guards: word boundaries only understand
	// ASCII word characters.
	womenRe = regexp.MustCompile(`(?i)(\bwo?men'?s?\b|\bwomens\b|\bwmns\b|\bladies\b|נשים|לנשים)`)
	menRe   = regexp.MustCompile(`(?i)(\bmen'?s?\b|\bmens\b|גברים|לגברים)`)

	// modelNumberRe extracts a 2-4 digit code from the core model.
	modelNumberRe = regexp.MustCompile(`\d{2,4}`)
)

// Validator is the semantic gate of the pipeline: pure text rules, no I/O.
type Validator struct {
	menMatchOnUnmarked bool
	logger             logger.Logger
}

func NewValidator(menMatchOnUnmarked bool, log logger.Logger) *Validator {
	return &Validator{
		menMatchOnUnmarked: menMatchOnUnmarked,
		logger:             log.WithFields(map[string]interface{}{"stage": "semantic"}),
	}
}

// Validate applies the ordered semantic rules; the first failing rule
// rejects. It never mutates the item.
func (v *Validator) Validate(item models.RawItem, q models.Query) bool {
	title := foldWords(item.Title)
	combined := strings.ToLower(item.Title + " " + item.Context)

	// 1. Blacklist: non-footwear nouns disqualify outright.
	for _, word := range titleBlacklist {
		if containsWord(title, word) {
			v.reject(item, "blacklisted term: "+word)
			return false
		}
	}

	// 2. Junk/accessory filter: accessory keyword without a footwear keyword.
	if containsAnyWord(title, junkKeywords) && !containsAnyWord(title, footwearKeywords) {
		v.reject(item, "accessory listing")
		return false
	}

	// 3. Gender match.
	intent := InferGender(q)
	if !v.GenderMatch(combined, intent) {
		v.reject(item, fmt.Sprintf("gender mismatch (intent %s)", intent))
		return false
	}

	// 4. Model match.
	if !v.modelMatch(combined, q) {
		v.reject(item, "model mismatch")
		return false
	}

	// 5. Size filter, best effort against the equivalence table.
	if !q.SizeIsWildcard() && !search.SizeMatches(item.Sizes, search.RelatedSizes(q.Size)) {
		v.reject(item, "size mismatch")
		return false
	}

	return true
}

// InferGender derives gender intent from the query. A wildcard size means
// the search is exploratory and gender is not enforced.
func InferGender(q models.Query) Gender {
	if q.SizeIsWildcard() {
		return GenderUnisex
	}
	combined := q.Brand + " " + q.Model
	if womenRe.MatchString(combined) {
		return GenderWomen
	}
	if menRe.MatchString(combined) {
		return GenderMen
	}
	return GenderUnisex
}

// GenderMatch checks a combined title+context text against the intent.
//
// The rule is deliberately asymmetric: WOMEN requires an explicit women
// token, while MEN also accepts text with no gender marking at all (the
// catalog convention treats unmarked listings as men's).
func (v *Validator) GenderMatch(text string, intent Gender) bool {
	switch intent {
	case GenderUnisex:
		return true
	case GenderWomen:
		return womenRe.MatchString(text)
	case GenderMen:
		// An explicit men token always satisfies MEN intent, even when the
		// listing also carries a women token (shared-sizing listings).
		if menRe.MatchString(text) {
			return true
		}
		return v.menMatchOnUnmarked && !womenRe.MatchString(text)
	}
	return false
}

func (v *Validator) modelMatch(combined string, q models.Query) bool {
	core := strings.ToLower(search.CoreModel(q.Model))
	if core == "" {
		// No usable core model: fall back to the bare brand name.
		return strings.Contains(combined, strings.ToLower(q.Brand))
	}

	for _, alias := range search.AliasesFor(core) {
		if strings.Contains(combined, alias) {
			return true
		}
	}

	if num := modelNumberRe.FindString(core); num != "" {
		// Boundary-aware with tolerance for a short alphabetic prefix or
		// suffix, so a query for "530" also accepts "MR530".
		re := regexp.MustCompile(`(?i)(^|[^a-z0-9])[a-z]{0,2}` + regexp.QuoteMeta(num) + `[a-z]{0,2}([^a-z0-9]|$)`)
		return re.MatchString(combined)
	}

	return strings.Contains(combined, core)
}

func (v *Validator) reject(item models.RawItem, reason string) {
	v.logger.Debug("item rejected", map[string]interface{}{
		"title":  item.Title,
		"reason": reason,
	})
}

// foldWords lowercases text and collapses every non-alphanumeric run to a
// single space, with padding, so keyword checks can require whole-word hits.
// "shoe" must not fire inside "shoelaces", nor "cap" inside "capsule".
func foldWords(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return " " + strings.Join(strings.Fields(b.String()), " ") + " "
}

// containsWord reports whether the folded text contains keyword as whole
// words. Multi-word keywords ("flip flop", "cleaning kit") match as a
// folded phrase.
func containsWord(folded, keyword string) bool {
	return strings.Contains(folded, foldWords(keyword))
}

func containsAnyWord(folded string, words []string) bool {
	for _, w := range words {
		if containsWord(folded, w) {
			return true
		}
	}
	return false
}
