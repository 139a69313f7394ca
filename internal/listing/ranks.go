package listing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// maxRangeSpan bounds "a-b" expansions so a typo cannot allocate millions of ranks.
const maxRangeSpan = 1000

// ErrInvalidRank reports a rank outside the displayed list or unparseable input.
var ErrInvalidRank = errors.New("invalid rank")

// ParseRanks parses rank expressions such as "1,3-5" or "2 4". Each argument
// may hold several comma or space separated parts. Duplicates are dropped
// and first-seen order is kept.
func ParseRanks(args ...string) ([]int, error) {
	var ranks []int
	seen := make(map[int]bool)
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			ranks = append(ranks, n)
		}
	}

	for _, arg := range args {
		for _, part := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			lo, hi, isRange := strings.Cut(part, "-")
			start, err := parseRank(lo)
			if err != nil {
				return nil, err
			}
			if !isRange {
				add(start)
				continue
			}
			end, err := parseRank(hi)
			if err != nil {
				return nil, err
			}
			if end < start {
				return nil, fmt.Errorf("%w: range %q is backwards", ErrInvalidRank, part)
			}
			if end-start >= maxRangeSpan {
				return nil, fmt.Errorf("%w: range %q is too large", ErrInvalidRank, part)
			}
			for n := start; n <= end; n++ {
				add(n)
			}
		}
	}
	if len(ranks) == 0 {
		return nil, fmt.Errorf("%w: no ranks given", ErrInvalidRank)
	}
	return ranks, nil
}

func parseRank(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidRank, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d (ranks start at 1)", ErrInvalidRank, n)
	}
	return n, nil
}

// Pick returns the repo at 1-based rank.
func Pick(repos []trending.Repo, rank int) (trending.Repo, error) {
	if rank < 1 || rank > len(repos) {
		return trending.Repo{}, RangeError(rank, len(repos))
	}
	return repos[rank-1], nil
}

// PickAll resolves every rank, failing on the first one out of range.
func PickAll(repos []trending.Repo, ranks []int) ([]trending.Repo, error) {
	out := make([]trending.Repo, 0, len(ranks))
	for _, r := range ranks {
		repo, err := Pick(repos, r)
		if err != nil {
			return nil, err
		}
		out = append(out, repo)
	}
	return out, nil
}

// RangeError describes rank falling outside 1..n.
func RangeError(rank, n int) error {
	if n == 0 {
		return fmt.Errorf("%w: %d (the list is empty)", ErrInvalidRank, rank)
	}
	return fmt.Errorf("%w: %d (valid: 1-%d)", ErrInvalidRank, rank, n)
}
