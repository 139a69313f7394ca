package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/ghtrend/internal/upstream/trending"
)

func sample() []trending.Repo {
	return []trending.Repo{
		{Owner: "acme", Name: "rocket", Description: "Fast rockets", Stars: 12345},
		{Owner: "zeta", Name: "llm-kit", Description: "Tools for LLM apps", Stars: 800},
		{Owner: "beta", Name: "Parser", Description: "A parser", Stars: 5000},
		{Owner: "acme", Name: "tiny", Description: "", Stars: 800},
	}
}

func names(repos []trending.Repo) []string {
	out := make([]string, 0, len(repos))
	for _, r := range repos {
		out = append(out, r.FullName())
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "trending order by default",
			opts: Options{},
			want: []string{"acme/rocket", "zeta/llm-kit", "beta/Parser", "acme/tiny"},
		},
		{
			name: "star bounds",
			opts: Options{MinStars: 1000, MaxStars: 10000},
			want: []string{"beta/Parser"},
		},
		{
			name: "search matches description ignoring case",
			opts: Options{Search: "llm"},
			want: []string{"zeta/llm-kit"},
		},
		{
			name: "search matches owner",
			opts: Options{Search: "ACME"},
			want: []string{"acme/rocket", "acme/tiny"},
		},
		{
			name: "stars descending is stable",
			opts: Options{Sort: SortStars},
			want: []string{"acme/rocket", "beta/Parser", "zeta/llm-kit", "acme/tiny"},
		},
		{
			name: "stars reversed",
			opts: Options{Sort: SortStars, Reverse: true},
			want: []string{"zeta/llm-kit", "acme/tiny", "beta/Parser", "acme/rocket"},
		},
		{
			name: "name ascending",
			opts: Options{Sort: SortName},
			want: []string{"acme/rocket", "acme/tiny", "beta/Parser", "zeta/llm-kit"},
		},
		{
			name: "top applies after sort",
			opts: Options{Sort: SortName, Reverse: true, Top: 2},
			want: []string{"zeta/llm-kit", "beta/Parser"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.opts.Validate())
			assert.Equal(t, tt.want, names(Apply(sample(), tt.opts)))
		})
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	in := sample()
	_ = Apply(in, Options{Sort: SortName, Reverse: true})
	assert.Equal(t, "acme/rocket", in[0].FullName())
}

func TestOptionsValidate(t *testing.T) {
	assert.ErrorIs(t, Options{Sort: "date"}.Validate(), ErrInvalidSortField)
	assert.ErrorIs(t, Options{MinStars: 10, MaxStars: 5}.Validate(), ErrInvalidStars)
	assert.ErrorIs(t, Options{MinStars: -1}.Validate(), ErrInvalidStars)
	assert.ErrorIs(t, Options{Top: -3}.Validate(), ErrInvalidTop)
}

func TestParseRanks(t *testing.T) {
	tests := []struct {
		args []string
		want []int
	}{
		{[]string{"3"}, []int{3}},
		{[]string{"1,3-5"}, []int{1, 3, 4, 5}},
		{[]string{"1 3", "2"}, []int{1, 3, 2}},
		{[]string{"2-4", "3,7"}, []int{2, 3, 4, 7}},
		{[]string{" 5 - 6 "}, []int{5, 6}},
	}
	for _, tt := range tests {
		got, err := ParseRanks(tt.args...)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.want, got, tt.args)
	}
}

func TestParseRanks_Invalid(t *testing.T) {
	for _, in := range []string{"", "0", "x", "5-2", "1-5000", "-1", "3-"} {
		_, err := ParseRanks(in)
		assert.ErrorIs(t, err, ErrInvalidRank, in)
	}
}

func TestPick(t *testing.T) {
	repos := sample()

	r, err := Pick(repos, 2)
	require.NoError(t, err)
	assert.Equal(t, "zeta/llm-kit", r.FullName())

	_, err = Pick(repos, 5)
	require.ErrorIs(t, err, ErrInvalidRank)
	assert.Contains(t, err.Error(), "valid: 1-4")

	_, err = Pick(nil, 1)
	assert.Contains(t, err.Error(), "empty")

	picked, err := PickAll(repos, []int{4, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/tiny", "acme/rocket"}, names(picked))
}
