package fulfillment

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jetqor/backend/internal/domain/marketplace"
)

// Scoring weights for address matching. A candidate warehouse needs the
// street name plus the street number (or an override rule) to win.
const (
	streetNameScore   = 60
	streetNumberScore = 40

	// DefaultMinScore is the score a candidate must reach to be accepted.
	DefaultMinScore = 80
)

// DefaultStopWords are address filler tokens that carry no matching signal.
// Russian and Kazakh, matching the address style of the marketplace.
var DefaultStopWords = []string{
	"улица", "ул", "проспект", "пр", "город", "г",
	"астана", "алматы", "казахстан", "рк",
	"дом", "д", "микрорайон", "мкр", "кз",
}

// OverrideRule pins an address to a warehouse when every rule token appears
// in the address. Used for addresses the scored matcher cannot untangle.
type OverrideRule struct {
	Tokens      []string
	WarehouseID int64
}

// ResolverConfig tunes the resolver. Zero values fall back to the package
// defaults.
type ResolverConfig struct {
	Overrides []OverrideRule
	StopWords []string
	MinScore  int
}

// Resolver maps a free-text origin address to a warehouse id.
type Resolver struct {
	warehouses WarehouseRepository
	overrides  []OverrideRule
	stopWords  map[string]struct{}
	minScore   int
	logger     *zap.Logger
}

// NewResolver creates a resolver over the given warehouse directory.
func NewResolver(cfg ResolverConfig, warehouses WarehouseRepository, logger *zap.Logger) *Resolver {
	stopWords := cfg.StopWords
	if len(stopWords) == 0 {
		stopWords = DefaultStopWords
	}
	stopSet := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stopSet[strings.ToLower(w)] = struct{}{}
	}

	minScore := cfg.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	// Overrides keep their tokens pre-normalized so Resolve only does set
	// containment per rule.
	overrides := make([]OverrideRule, 0, len(cfg.Overrides))
	for _, rule := range cfg.Overrides {
		normalized := OverrideRule{WarehouseID: rule.WarehouseID}
		for _, token := range rule.Tokens {
			for _, t := range tokenize(token) {
				normalized.Tokens = append(normalized.Tokens, t)
			}
		}
		if len(normalized.Tokens) > 0 {
			overrides = append(overrides, normalized)
		}
	}

	return &Resolver{
		warehouses: warehouses,
		overrides:  overrides,
		stopWords:  stopSet,
		minScore:   minScore,
		logger:     logger,
	}
}

// Resolve returns the warehouse id for the address. ok is false when no
// candidate reaches the minimum score; that outcome is expected for
// unroutable addresses and is not an error. Errors come only from the
// warehouse directory.
func (r *Resolver) Resolve(ctx context.Context, addr *marketplace.OriginAddress) (int64, bool, error) {
	if addr == nil {
		return 0, false, nil
	}

	// Override rules see the full token set, stop words included, because
	// several rules pin on city and district tokens.
	full := tokenSet(tokenize(addr.StreetName + " " + addr.StreetNumber + " " + addr.Building + " " + addr.City))
	for _, rule := range r.overrides {
		if containsAll(full, rule.Tokens) {
			return rule.WarehouseID, true, nil
		}
	}

	streetPhrase := r.phrase(addr.StreetName)
	numberPhrase := r.phrase(addr.StreetNumber)
	if streetPhrase == "" {
		return 0, false, nil
	}

	candidates, err := r.warehouses.FindByCity(ctx, addr.City)
	if err != nil {
		return 0, false, err
	}

	var bestID int64
	bestScore := 0
	for _, wh := range candidates {
		whAddr := r.phrase(wh.Address)
		score := 0
		if strings.Contains(whAddr, streetPhrase) {
			score += streetNameScore
		}
		if numberPhrase != "" && strings.Contains(whAddr, numberPhrase) {
			score += streetNumberScore
		}
		if score > bestScore {
			bestScore = score
			bestID = wh.ID
		}
	}

	if bestScore < r.minScore {
		if r.logger != nil {
			r.logger.Debug("No warehouse matched origin address",
				zap.String("city", addr.City),
				zap.String("street", streetPhrase),
				zap.Int("best_score", bestScore),
			)
		}
		return 0, false, nil
	}
	return bestID, true, nil
}

// phrase normalizes text into a single-spaced, stop-word-free string.
func (r *Resolver) phrase(text string) string {
	tokens := tokenize(text)
	kept := tokens[:0]
	for _, t := range tokens {
		if _, stop := r.stopWords[t]; !stop {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, " ")
}

// tokenize lower-cases text, turns punctuation into spaces and splits.
func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	cleaned := strings.Map(func(ch rune) rune {
		switch ch {
		case '(', ')', '/', '\\', '-', ',', '.', ';':
			return ' '
		}
		return ch
	}, lowered)
	return strings.Fields(cleaned)
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func containsAll(set map[string]struct{}, tokens []string) bool {
	for _, t := range tokens {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
