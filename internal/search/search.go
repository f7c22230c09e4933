// Package search ranks stored commands against free-text queries
package search

import (
	"sort"
	"strings"

	"github.com/AbdouB/memorybox/internal/db"
	"github.com/AbdouB/memorybox/internal/models"
)

const (
	// DefaultLimit bounds result sets when the caller does not supply one.
	DefaultLimit = 10
	// DefaultThreshold is the minimum fuzzy score kept in results.
	DefaultThreshold = 60
)

// Store is the slice of the command repository the engine reads from.
type Store interface {
	Candidates(db.Filter) ([]*models.Command, error)
}

// Engine combines structural filtering with exact or fuzzy text matching.
type Engine struct {
	store Store
}

// New creates a search engine over the given store.
func New(store Store) *Engine {
	return &Engine{store: store}
}

// Options describes a single search request. Zero-valued filters are
// ignored rather than rejected.
type Options struct {
	Query       string
	OS          string
	ProjectType string
	Category    string
	Tags        []string
	Fuzzy       bool
	Threshold   int
	Limit       int
}

// Search returns matching commands, ranked and truncated per the request.
// Exact searches apply the query as a case-sensitive substring filter in
// the store and keep its use-count/recency order. Fuzzy searches withhold
// the query from the store so scoring sees every structurally eligible
// candidate.
func (e *Engine) Search(opts Options) ([]*models.Command, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	filter := db.Filter{
		OS:          opts.OS,
		ProjectType: opts.ProjectType,
		Category:    opts.Category,
		Tags:        opts.Tags,
	}
	if !opts.Fuzzy {
		filter.Query = opts.Query
	}

	candidates, err := e.store.Candidates(filter)
	if err != nil {
		return nil, err
	}

	if opts.Fuzzy && opts.Query != "" {
		return rankFuzzy(candidates, opts.Query, threshold, limit), nil
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// rankFuzzy scores candidates against the query, drops those under the
// threshold and orders the rest by score, breaking ties on use count.
func rankFuzzy(candidates []*models.Command, query string, threshold, limit int) []*models.Command {
	type scored struct {
		score int
		cmd   *models.Command
	}

	queryLower := strings.ToLower(query)

	var matches []scored
	for _, cmd := range candidates {
		score := bestScore(queryLower, cmd)
		if score >= threshold {
			matches = append(matches, scored{score: score, cmd: cmd})
		}
	}

	// Candidates arrive ordered by use count and recency; a stable sort
	// keeps that order among full ties.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].cmd.UseCount > matches[j].cmd.UseCount
	})

	results := make([]*models.Command, 0, len(matches))
	for _, m := range matches {
		if len(results) == limit {
			break
		}
		results = append(results, m.cmd)
	}
	return results
}

// bestScore is the maximum partial-ratio score across the three text fields.
func bestScore(queryLower string, cmd *models.Command) int {
	context := ""
	if cmd.Context != nil {
		context = *cmd.Context
	}

	score := PartialRatio(queryLower, strings.ToLower(cmd.Command))
	if s := PartialRatio(queryLower, strings.ToLower(cmd.Description)); s > score {
		score = s
	}
	if s := PartialRatio(queryLower, strings.ToLower(context)); s > score {
		score = s
	}
	return score
}
