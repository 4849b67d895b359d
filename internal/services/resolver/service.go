// Package resolver turns free-text holdings ("name/code amount" lines) into
// fund code, name and amount candidates.
package resolver

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/interfaces"
	"github.com/bobmcallan/fundval/internal/models"
)

var (
	// six digits not adjacent to a letter, digit or underscore
	codePattern = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])([0-9]{6})(?:$|[^\p{L}\p{N}_])`)

	// [index.] name <sep> numeric tail
	namePattern = regexp.MustCompile(`^\s*(?:\d+[.、\s]+)?(.*?)\s*[:：\s]\s*(\d.*)$`)

	amountPattern = regexp.MustCompile(`[+-]?\d[\d,]*\.?\d+`)

	normalizer = strings.NewReplacer("：", ":", "元", "", "（", "(", "）", ")", "\u3000", " ")
)

const (
	// minAmount is the smallest value accepted as a position amount;
	// smaller numbers are usually percentages or share fractions.
	minAmount = 0.1

	// minKeywordRunes is the shortest keyword sent to the remote search
	minKeywordRunes = 2

	// namePrefixRunes locates a cached name inside the raw line
	namePrefixRunes = 4
)

// Service implements ResolverService
type Service struct {
	repo     interfaces.FundRepository
	searcher interfaces.FundSearcher
	logger   *common.Logger
}

// NewService creates a resolver. searcher may be nil, in which case names not
// in the repository are only matched by substring.
func NewService(repo interfaces.FundRepository, searcher interfaces.FundSearcher, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		repo:     repo,
		searcher: searcher,
		logger:   logger,
	}
}

// Resolve parses text line by line. Lines without a recognisable fund are
// dropped; the result keeps input order.
func (s *Service) Resolve(ctx context.Context, text string) []models.ResolveCandidate {
	text = normalizer.Replace(text)

	var out []models.ResolveCandidate
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if c, ok := s.resolveLine(ctx, line); ok {
			out = append(out, c)
		}
	}

	s.logger.Debug().Int("candidates", len(out)).Msg("Resolved holdings text")
	return out
}

func (s *Service) resolveLine(ctx context.Context, line string) (models.ResolveCandidate, bool) {
	var code, name string
	searchText := line

	if loc := codePattern.FindStringSubmatchIndex(line); loc != nil {
		code = line[loc[2]:loc[3]]
		name = s.displayName(code)
		searchText = line[loc[3]:]
	} else if m := namePattern.FindStringSubmatch(line); m != nil {
		if keyword := strings.TrimSpace(m[1]); keyword != "" {
			code, name = s.lookupName(ctx, keyword)
			searchText = m[2]
		}
	}

	if code == "" {
		f, ok := s.matchKnownName(line)
		if !ok {
			return models.ResolveCandidate{}, false
		}
		code, name = f.Code, f.Name
		if pos := strings.Index(line, firstRunes(name, namePrefixRunes)); pos >= 0 {
			searchText = sliceFrom(line, pos+len(name))
		}
	}

	return models.ResolveCandidate{
		Code:   code,
		Name:   name,
		Amount: extractAmount(searchText, code),
	}, true
}

// displayName is the repository name for code, or a generic label
func (s *Service) displayName(code string) string {
	if name, ok := s.repo.NameByCode(code); ok {
		return name
	}
	return "基金(" + code + ")"
}

// lookupName resolves a keyword via the repository, then the remote search.
// A remote hit is cached under the cleaned keyword and reported with the
// name the search returned.
func (s *Service) lookupName(ctx context.Context, keyword string) (string, string) {
	if code, ok := s.repo.CodeByName(keyword); ok {
		return code, keyword
	}

	cleaned := strings.ReplaceAll(keyword, " ", "")
	if code, ok := s.repo.CodeByName(cleaned); ok {
		return code, cleaned
	}
	if utf8.RuneCountInString(cleaned) < minKeywordRunes || s.searcher == nil {
		return "", ""
	}

	results, err := s.searcher.SearchFunds(ctx, cleaned)
	if err != nil {
		s.logger.Warn().Err(err).Str("keyword", cleaned).Msg("Fund search failed")
		return "", ""
	}
	if len(results) == 0 || results[0].Code == "" {
		s.logger.Debug().Str("keyword", cleaned).Msg("Fund search returned no match")
		return "", ""
	}

	best := results[0]
	s.repo.Put(cleaned, best.Code)
	name := best.Name
	if name == "" {
		name = cleaned
	}
	s.logger.Info().Str("keyword", cleaned).Str("code", best.Code).Str("name", name).Msg("Fund resolved by search")
	return best.Code, name
}

// matchKnownName finds the longest repository name contained in line,
// ignoring spaces on both sides.
func (s *Service) matchKnownName(line string) (models.FundName, bool) {
	compact := strings.ReplaceAll(line, " ", "")
	for _, f := range s.repo.ByNameLength() {
		key := strings.ReplaceAll(f.Name, " ", "")
		if key != "" && strings.Contains(compact, key) {
			return f, true
		}
	}
	return models.FundName{}, false
}

// extractAmount picks the last number greater than minAmount that is not the
// fund code itself; 0 when there is none.
func extractAmount(text, code string) float64 {
	matches := amountPattern.FindAllString(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		raw := strings.ReplaceAll(matches[i], ",", "")
		if raw == code {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if v > minAmount {
			return v
		}
	}
	return 0
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// sliceFrom returns s[i:] clamped to the string and moved forward to a rune boundary
func sliceFrom(s string, i int) string {
	if i >= len(s) {
		return ""
	}
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}

// Ensure Service implements ResolverService
var _ interfaces.ResolverService = (*Service)(nil)
