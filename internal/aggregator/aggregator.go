package aggregator

import (
	"cmp"
	"slices"

	"github.com/kurihiro0119/devpulse/internal/domain"
)

// MaxLanguages is the number of entries kept by LanguageStats
const MaxLanguages = 8

// fallbackLanguage keys the color shared by languages missing from languageColors
const fallbackLanguage = "Other"

var languageColors = map[string]string{
	"JavaScript":     "#f1e05a",
	"TypeScript":     "#3178c6",
	"Python":         "#3572A5",
	"Java":           "#b07219",
	"C++":            "#f34b7d",
	"C":              "#555555",
	"C#":             "#178600",
	"Go":             "#00ADD8",
	"Rust":           "#dea584",
	"Ruby":           "#701516",
	"PHP":            "#4F5D95",
	"Swift":          "#F05138",
	"Kotlin":         "#A97BFF",
	"Dart":           "#00B4AB",
	"Scala":          "#c22d40",
	"Shell":          "#89e051",
	"HTML":           "#e34c26",
	"CSS":            "#563d7c",
	"SCSS":           "#c6538c",
	"Vue":            "#41b883",
	"Svelte":         "#ff3e00",
	"Elixir":         "#6e4a7e",
	"Haskell":        "#5e5086",
	"Lua":            "#000080",
	"R":              "#198CE7",
	"MATLAB":         "#e16737",
	"Perl":           "#0298c3",
	"Clojure":        "#db5855",
	"Erlang":         "#B83998",
	"Nix":            "#7e7eff",
	"Dockerfile":     "#384d54",
	"Makefile":       "#427819",
	fallbackLanguage: "#8b949e",
}

// LanguageColor returns the display color for a language.
// Matching is exact and case-sensitive.
func LanguageColor(language string) string {
	if color, ok := languageColors[language]; ok {
		return color
	}
	return languageColors[fallbackLanguage]
}

type languageCount struct {
	language string
	count    int
}

// countLanguages counts non-fork repositories per language, in first-seen
// order. Forks and repositories without a language are skipped.
func countLanguages(repos []*domain.Repository) ([]languageCount, int) {
	var counts []languageCount
	index := make(map[string]int)
	total := 0

	for _, repo := range repos {
		if repo == nil || repo.Fork || !repo.HasLanguage() {
			continue
		}
		i, ok := index[repo.Language]
		if !ok {
			i = len(counts)
			index[repo.Language] = i
			counts = append(counts, languageCount{language: repo.Language})
		}
		counts[i].count++
		total++
	}

	slices.SortStableFunc(counts, func(a, b languageCount) int {
		return cmp.Compare(b.count, a.count)
	})
	return counts, total
}

// LanguageStats returns the top languages of the user's own repositories,
// most used first. Percentages are rounded independently and need not sum
// to 100.
func LanguageStats(repos []*domain.Repository) []domain.LanguageStat {
	counts, total := countLanguages(repos)
	if total == 0 {
		return []domain.LanguageStat{}
	}

	if len(counts) > MaxLanguages {
		counts = counts[:MaxLanguages]
	}

	stats := make([]domain.LanguageStat, 0, len(counts))
	for _, c := range counts {
		stats = append(stats, domain.LanguageStat{
			Language:   c.language,
			Count:      c.count,
			Color:      LanguageColor(c.language),
			Percentage: roundPercent(c.count, total),
		})
	}
	return stats
}

// roundPercent computes round-half-up(part*100/total) in integer arithmetic
func roundPercent(part, total int) int {
	return (200*part + total) / (2 * total)
}

// ReposByStars returns a copy of repos ordered by stars, most starred first.
// Equal counts keep their input order.
func ReposByStars(repos []*domain.Repository) []*domain.Repository {
	sorted := slices.Clone(repos)
	if sorted == nil {
		sorted = []*domain.Repository{}
	}
	slices.SortStableFunc(sorted, func(a, b *domain.Repository) int {
		return cmp.Compare(b.StargazersCount, a.StargazersCount)
	})
	return sorted
}

// ComputeTotalStats sums stars, forks and watchers over every repository,
// forks included. The top language follows the LanguageStats rules.
func ComputeTotalStats(repos []*domain.Repository) domain.TotalStats {
	var stats domain.TotalStats
	for _, repo := range repos {
		if repo == nil {
			continue
		}
		stats.TotalStars += repo.StargazersCount
		stats.TotalForks += repo.ForksCount
		stats.TotalWatchers += repo.WatchersCount
	}

	stats.TopLanguage = domain.NoLanguage
	if counts, _ := countLanguages(repos); len(counts) > 0 {
		stats.TopLanguage = counts[0].language
	}
	return stats
}
