package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/ferry/pkg/ferry/config"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorIssue() operation.Issue {
	return operation.Issue{
		Operation: operation.KindDelete,
		Category:  operation.CategoryDelete,
		Subject:   "/data/locked",
		Title:     "Delete failed",
		Text:      "cannot delete /data/locked",
		Options:   []operation.Decision{operation.Retry, operation.Skip, operation.SkipAll, operation.Abort},
	}
}

func overwriteIssue() operation.Issue {
	return operation.Issue{
		Operation: operation.KindCopy,
		Category:  operation.CategoryOverwrite,
		Subject:   "/dst/a.txt",
		Title:     "File exists",
		Text:      "/dst/a.txt already exists",
		Options: []operation.Decision{
			operation.Overwrite, operation.OverwriteAll, operation.Skip, operation.SkipAll, operation.Abort,
		},
	}
}

func TestPolicyDecision(t *testing.T) {
	tests := []struct {
		policy string
		want   operation.Decision
	}{
		{config.PolicyAsk, operation.None},
		{config.PolicyRetry, operation.Retry},
		{config.PolicySkip, operation.Skip},
		{config.PolicyAbort, operation.Abort},
		{config.PolicyAll, operation.OverwriteAll},
		{"", operation.None},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			assert.Equal(t, tt.want, policyDecision(tt.policy))
		})
	}
}

func TestNewResolverWithoutAsking(t *testing.T) {
	r := newResolver(config.IssuesConfig{OnError: config.PolicySkip, Overwrite: config.PolicyAll}, nil)
	require.IsType(t, &operation.AutoResolver{}, r)

	d, err := r.Resolve(context.Background(), errorIssue())
	require.NoError(t, err)
	assert.Equal(t, operation.Skip, d)

	d, err = r.Resolve(context.Background(), overwriteIssue())
	require.NoError(t, err)
	assert.Equal(t, operation.OverwriteAll, d)
}

func TestNewResolverRoutesAskCategories(t *testing.T) {
	var asked []operation.Category
	ask := operation.ResolverFunc(func(_ context.Context, issue operation.Issue) (operation.Decision, error) {
		asked = append(asked, issue.Category)
		return operation.Abort, nil
	})

	r := newResolver(config.IssuesConfig{OnError: config.PolicyAsk, Overwrite: config.PolicySkip}, ask)

	d, err := r.Resolve(context.Background(), overwriteIssue())
	require.NoError(t, err)
	assert.Equal(t, operation.Skip, d)
	assert.Empty(t, asked)

	d, err = r.Resolve(context.Background(), errorIssue())
	require.NoError(t, err)
	assert.Equal(t, operation.Abort, d)
	assert.Equal(t, []operation.Category{operation.CategoryDelete}, asked)
}

func TestNewResolverRetriesThenSkips(t *testing.T) {
	r := newResolver(config.IssuesConfig{OnError: config.PolicyRetry, Overwrite: config.PolicyAbort, MaxRetries: 2}, nil)

	var got []operation.Decision
	for range 3 {
		d, err := r.Resolve(context.Background(), errorIssue())
		require.NoError(t, err)
		got = append(got, d)
	}
	assert.Equal(t, []operation.Decision{operation.Retry, operation.Retry, operation.Skip}, got)
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		in   string
		want operation.Decision
		ok   bool
	}{
		{"r", operation.Retry, true},
		{"S", operation.SkipAll, true},
		{"s", operation.Skip, true},
		{" O ", operation.OverwriteAll, true},
		{"overwrite-all", operation.OverwriteAll, true},
		{"skip all", operation.SkipAll, true},
		{"maybe", operation.None, false},
		{"", operation.None, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, ok := parseAnswer(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, d)
			}
		})
	}
}

func TestOptionList(t *testing.T) {
	assert.Equal(t, "r=retry s=skip S=skip-all a=abort", optionList(errorIssue().Options))
}

func TestPromptResolverReprompts(t *testing.T) {
	var out bytes.Buffer
	p := newPromptResolver(strings.NewReader("maybe\no\nS\n"), &out)

	d, err := p.Resolve(context.Background(), errorIssue())
	require.NoError(t, err)
	assert.Equal(t, operation.SkipAll, d)

	text := out.String()
	assert.Contains(t, text, "Delete failed: cannot delete /data/locked")
	assert.Equal(t, 2, strings.Count(text, "Please answer one of"))
}

func TestPromptResolverKeepsReadingAcrossIssues(t *testing.T) {
	p := newPromptResolver(strings.NewReader("r\no\n"), io.Discard)

	d, err := p.Resolve(context.Background(), errorIssue())
	require.NoError(t, err)
	assert.Equal(t, operation.Retry, d)

	d, err = p.Resolve(context.Background(), overwriteIssue())
	require.NoError(t, err)
	assert.Equal(t, operation.Overwrite, d)
}

func TestPromptResolverEOFAborts(t *testing.T) {
	p := newPromptResolver(strings.NewReader(""), io.Discard)

	d, err := p.Resolve(context.Background(), errorIssue())
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, operation.Abort, d)
}

func TestPromptResolverHonoursContext(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	p := newPromptResolver(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := p.Resolve(ctx, errorIssue())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, operation.Abort, d)
}

func TestLineObserverThrottles(t *testing.T) {
	var out bytes.Buffer
	clock := clockwork.NewFakeClock()

	o := newLineObserver(&out, clock)(nil, operation.Snapshot{Title: "Deleting", Row1Value: "/data/a", Progress1: 10})
	assert.Equal(t, "Deleting  10.0% /data/a\n", out.String())

	o.Update(operation.Snapshot{Title: "Deleting", Row1Value: "/data/b", Progress1: 20})
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))

	clock.Advance(time.Second)
	o.Update(operation.Snapshot{Title: "Deleting", Row1Value: "/data/c", Progress1: 42})
	assert.Contains(t, out.String(), "Deleting  42.0% /data/c\n")
	assert.NotContains(t, out.String(), "/data/b")

	clock.Advance(2 * time.Second)
	o.Update(operation.Snapshot{Title: "Scanning", Row1Value: "/data/d", Undetermined: true})
	assert.Contains(t, out.String(), "Scanning /data/d\n")
	o.Close()
}
