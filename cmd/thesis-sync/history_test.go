// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/thesis-sync/pkg/types"
)

func historyRuns() []types.RunRecord {
	t0 := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	return []types.RunRecord{
		{ID: "run-3", StartedAt: t0.Add(2 * time.Hour), Status: types.RunFailed, Error: "fetch failed",
			FinishedAt: t0.Add(2*time.Hour + time.Second)},
		{ID: "run-2", StartedAt: t0.Add(time.Hour), FinishedAt: t0.Add(time.Hour + time.Minute),
			Status: types.RunDone, Summary: types.RunSummary{Included: 3, Organizations: 2}},
	}
}

func markedLines(out string) []string {
	var marked []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "*") {
			marked = append(marked, line)
		}
	}
	return marked
}

func TestPrintRuns_MarksLastSuccessful(t *testing.T) {
	runs := historyRuns()
	var buf strings.Builder
	require.NoError(t, printRuns(&buf, runs, &runs[1]))

	marked := markedLines(buf.String())
	require.Len(t, marked, 1)
	assert.Contains(t, marked[0], "run-2")
	assert.NotContains(t, buf.String(), "Last successful run")
}

func TestPrintRuns_LastSuccessfulOutsideList(t *testing.T) {
	runs := historyRuns()[:1]
	older := types.RunRecord{ID: "run-1", StartedAt: time.Date(2026, 3, 30, 8, 0, 0, 0, time.UTC), Status: types.RunDone}

	var buf strings.Builder
	require.NoError(t, printRuns(&buf, runs, &older))
	assert.Empty(t, markedLines(buf.String()))
	assert.Contains(t, buf.String(), "Last successful run: run-1")
}

func TestPrintRuns_NoSuccess(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, printRuns(&buf, historyRuns()[:1], nil))
	assert.Contains(t, buf.String(), "No successful run recorded.")

	buf.Reset()
	require.NoError(t, printRuns(&buf, nil, nil))
	assert.Equal(t, "No runs recorded.\n", buf.String())
}
