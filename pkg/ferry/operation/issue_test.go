package operation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorIssue(subject string) Issue {
	return Issue{Category: CategoryRead, Subject: subject, Options: []Decision{Retry, Skip, SkipAll, Abort}}
}

func TestAutoResolverRetriesThenSkips(t *testing.T) {
	r := NewAutoResolver(Retry, Skip, 2)
	ctx := context.Background()

	for _, want := range []Decision{Retry, Retry, Skip, Skip} {
		got, err := r.Resolve(ctx, errorIssue("/a"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := r.Resolve(ctx, errorIssue("/b"))
	require.NoError(t, err)
	assert.Equal(t, Retry, got, "retries are counted per subject")
}

func TestAutoResolverOverwritePolicy(t *testing.T) {
	r := NewAutoResolver(Skip, OverwriteAll, 0)
	exists := Issue{Category: CategoryOverwrite, Subject: "/x",
		Options: []Decision{Overwrite, OverwriteAll, Skip, SkipAll, Abort}}

	got, err := r.Resolve(context.Background(), exists)
	require.NoError(t, err)
	assert.Equal(t, OverwriteAll, got)

	got, err = r.Resolve(context.Background(), errorIssue("/x"))
	require.NoError(t, err)
	assert.Equal(t, Skip, got)
}

func TestAutoResolverUnofferedAborts(t *testing.T) {
	r := NewAutoResolver(Overwrite, Skip, 0)
	got, err := r.Resolve(context.Background(), errorIssue("/a"))
	require.NoError(t, err)
	assert.Equal(t, Abort, got)
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in   string
		want Decision
	}{
		{"retry", Retry},
		{"Skip", Skip},
		{"skip-all", SkipAll},
		{"skip_all", SkipAll},
		{"overwrite all", OverwriteAll},
		{" abort ", Abort},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecision(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, must(ParseDecision(got.String())))
		})
	}

	for _, bad := range []string{"", "none", "later"} {
		_, err := ParseDecision(bad)
		assert.ErrorIs(t, err, ErrInvalidDecision, bad)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func TestTextTable(t *testing.T) {
	tt := TextTable{"greet": "hello %s", "plain": "100%"}
	assert.Equal(t, "hello ferry", tt.Text("greet", "ferry"))
	assert.Equal(t, "100%", tt.Text("plain"))
	assert.Equal(t, "missing.key", tt.Text("missing.key", 1))
}

func TestStateAndDecisionNames(t *testing.T) {
	assert.Equal(t, "paused", Paused.String())
	assert.True(t, Aborted.Terminal())
	assert.False(t, Paused.Terminal())
	assert.Equal(t, "overwrite-all", OverwriteAll.String())
	assert.Equal(t, "unknown", Decision(99).String())
}
