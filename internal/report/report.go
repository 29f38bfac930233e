// Package report renders a digest to Markdown and writes the dated
// report file. Render is a pure function of the digest: identical
// digests produce byte-identical documents.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kevinmichaelchen/trend-digest/internal/digest"
)

// Render produces the full Markdown document for one digest.
func Render(d *digest.Digest) string {
	var b strings.Builder

	date := d.Date.Format("2006-01-02")
	language := d.Language
	if language == "" {
		language = "All languages"
	}

	fmt.Fprintf(&b, "# GitHub Trending Digest — %s\n\n", date)
	fmt.Fprintf(&b, "- **Language**: %s\n", language)
	fmt.Fprintf(&b, "- **Period**: %s\n", d.Since)
	fmt.Fprintf(&b, "- **Source**: %s\n\n", d.Source)

	topPicks := d.TopPicks()
	quickLooks := d.QuickLooks()

	b.WriteString("## Contents\n\n")
	for _, e := range topPicks {
		fmt.Fprintf(&b, "- 🏆 [%s](#%s)\n", e.Repo.FullName, anchor(e.Repo.FullName))
	}
	for _, e := range quickLooks {
		fmt.Fprintf(&b, "- [%s](#%s)\n", e.Repo.FullName, anchor(e.Repo.FullName))
	}
	b.WriteString("\n")

	if len(topPicks) > 0 {
		b.WriteString("## 🏆 Top Picks\n\n")
		for _, e := range topPicks {
			writeTopPick(&b, e)
		}
	}

	if len(quickLooks) > 0 {
		b.WriteString("## 👀 Quick Looks\n\n")
		for _, e := range quickLooks {
			writeQuickLook(&b, e)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Stats\n\n")
	fmt.Fprintf(&b, "- Repositories: %d (%d top picks, %d quick looks)\n",
		len(d.Entries), len(topPicks), len(quickLooks))
	fmt.Fprintf(&b, "- Total stars: %s\n", group(d.TotalStars()))
	fmt.Fprintf(&b, "- Stars gained this %s: %s\n", period(d.Since), group(d.TotalStarsGained()))

	return b.String()
}

func writeTopPick(b *strings.Builder, e digest.Entry) {
	fmt.Fprintf(b, "### %s\n\n", e.Repo.FullName)
	fmt.Fprintf(b, "> %s\n\n", e.Summary.OneLiner)
	fmt.Fprintf(b, "- **Repo**: [%s](%s)\n", e.Repo.FullName, e.Repo.URL)
	fmt.Fprintf(b, "- **Language**: %s | **Stars**: %s | **Gained**: +%s\n",
		e.Repo.Language, group(e.Repo.Stars), group(e.Repo.StarsGained))
	fmt.Fprintf(b, "- **Score**: %s (%d/5)", strings.Repeat("⭐", e.Summary.Score), e.Summary.Score)
	if e.Summary.ScoreReason != "" {
		fmt.Fprintf(b, " — %s", e.Summary.ScoreReason)
	}
	b.WriteString("\n")

	if len(e.Summary.CoreFeatures) > 0 {
		b.WriteString("\n**Core features**:\n")
		for _, f := range e.Summary.CoreFeatures {
			fmt.Fprintf(b, "- %s\n", f)
		}
	}
	if e.Summary.UseCase != "" {
		fmt.Fprintf(b, "\n**Use case**: %s\n", e.Summary.UseCase)
	}
	b.WriteString("\n---\n\n")
}

func writeQuickLook(b *strings.Builder, e digest.Entry) {
	// Quick looks are bullets, not headings, so each carries an
	// explicit anchor for the table of contents.
	line := fmt.Sprintf(`- <a id="%s"></a>**[%s](%s)**`, anchor(e.Repo.FullName), e.Repo.FullName, e.Repo.URL)
	if e.Summary.OneLiner != "" {
		line += " — " + e.Summary.OneLiner
	}
	line += fmt.Sprintf(" (%s, ⭐%s", e.Repo.Language, group(e.Repo.Stars))
	if e.Repo.StarsGained > 0 {
		line += fmt.Sprintf(", +%s", group(e.Repo.StarsGained))
	}
	line += ")"
	fmt.Fprintf(b, "%s\n", line)
}

// anchor mirrors GitHub's heading slugs: lowercase, spaces to hyphens,
// everything else non-alphanumeric dropped.
func anchor(heading string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(heading) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return b.String()
}

// group formats n with thousands separators: 12345 -> "12,345".
func group(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + group(-n)
	}
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}

func period(since string) string {
	switch since {
	case "weekly":
		return "week"
	case "monthly":
		return "month"
	default:
		return "day"
	}
}

// Write renders d and saves it as <dir>/<date>.md, overwriting any
// report already written for the same day.
func Write(d *digest.Digest, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports dir: %w", err)
	}
	path := filepath.Join(dir, d.Date.Format("2006-01-02")+".md")
	if err := os.WriteFile(path, []byte(Render(d)), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
