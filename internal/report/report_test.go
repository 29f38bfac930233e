package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinmichaelchen/trend-digest/internal/digest"
	"github.com/kevinmichaelchen/trend-digest/internal/models"
)

func sampleDigest() *digest.Digest {
	return &digest.Digest{
		Date:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Language: "Go",
		Since:    "daily",
		Source:   "trending",
		Entries: []digest.Entry{
			{
				Repo: models.Repo{
					Owner: "acme", Name: "rocket", FullName: "acme/rocket",
					URL:         "https://github.com/acme/rocket",
					Description: "A fast thing",
					Language:    "Go",
					Stars:       12345, StarsGained: 321,
				},
				Summary: models.Summary{
					OneLiner:     "Launches things quickly.",
					CoreFeatures: []string{"Fast launches", "Safe landings"},
					UseCase:      "Teams tired of slow launches.",
					Score:        4,
					ScoreReason:  "polished and active",
				},
				Tier: digest.TierTop,
			},
			{
				Repo: models.Repo{
					Owner: "acme", Name: "pebble", FullName: "acme/pebble",
					URL:      "https://github.com/acme/pebble",
					Language: "Rust",
					Stars:    987, StarsGained: 12,
				},
				Summary: models.Summary{OneLiner: "A tiny store.", Score: 3},
				Tier:    digest.TierQuick,
			},
		},
	}
}

func TestRender_IsPure(t *testing.T) {
	d := sampleDigest()

	first := Render(d)
	second := Render(d)

	assert.Equal(t, first, second, "identical digests must render byte-identical output")
}

func TestRender_Sections(t *testing.T) {
	out := Render(sampleDigest())

	assert.Contains(t, out, "# GitHub Trending Digest — 2025-06-01")
	assert.Contains(t, out, "- **Language**: Go")
	assert.Contains(t, out, "- **Period**: daily")
	assert.Contains(t, out, "- **Source**: trending")
	assert.Contains(t, out, "## Contents")
	assert.Contains(t, out, "## 🏆 Top Picks")
	assert.Contains(t, out, "## 👀 Quick Looks")
	assert.Contains(t, out, "## Stats")

	// TOC links to in-document anchors.
	assert.Contains(t, out, "[acme/rocket](#acmerocket)")
	assert.Contains(t, out, "[acme/pebble](#acmepebble)")

	// Top pick carries the full summary.
	assert.Contains(t, out, "> Launches things quickly.")
	assert.Contains(t, out, "- Fast launches")
	assert.Contains(t, out, "**Use case**: Teams tired of slow launches.")
	assert.Contains(t, out, "⭐⭐⭐⭐ (4/5) — polished and active")

	// Quick look is a single bullet carrying its own anchor.
	assert.Contains(t, out, `- <a id="acmepebble"></a>**[acme/pebble](https://github.com/acme/pebble)** — A tiny store. (Rust, ⭐987, +12)`)

	// Aggregates.
	assert.Contains(t, out, "Repositories: 2 (1 top picks, 1 quick looks)")
	assert.Contains(t, out, "Total stars: 13,332")
	assert.Contains(t, out, "Stars gained this day: 333")
}

func TestRender_EmptyLanguageShownAsAll(t *testing.T) {
	d := sampleDigest()
	d.Language = ""

	assert.Contains(t, Render(d), "- **Language**: All languages")
}

func TestWrite_IdempotentPerDay(t *testing.T) {
	dir := t.TempDir()
	d := sampleDigest()

	first, err := Write(d, dir)
	require.NoError(t, err)
	second, err := Write(d, dir)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, filepath.Join(dir, "2025-06-01.md"), first)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "rerunning the same day must not create a second file")

	content, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, Render(d), string(content))
}

func TestGroup(t *testing.T) {
	assert.Equal(t, "0", group(0))
	assert.Equal(t, "999", group(999))
	assert.Equal(t, "1,000", group(1000))
	assert.Equal(t, "12,345", group(12345))
	assert.Equal(t, "1,234,567", group(1234567))
}

func TestAnchor(t *testing.T) {
	assert.Equal(t, "acmerocket", anchor("acme/rocket"))
	assert.Equal(t, "my-repo", anchor("My-Repo"))
	assert.Equal(t, "a-b", anchor("a b"))
}

func TestRender_NoTrailingWhitespaceLines(t *testing.T) {
	for i, line := range strings.Split(Render(sampleDigest()), "\n") {
		assert.Equal(t, strings.TrimRight(line, " \t"), line, "line %d has trailing whitespace", i+1)
	}
}
