package domain

// LanguageStat is the share of a language across the user's own repositories
type LanguageStat struct {
	Language   string `json:"language"`
	Count      int    `json:"count"`
	Color      string `json:"color"`
	Percentage int    `json:"percentage"`
}

// ContributionDay is one cell of the contribution heatmap
type ContributionDay struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
	Level int    `json:"level"` // 0-4
}

// TotalStats holds sums over the whole repository set
type TotalStats struct {
	TotalStars    int    `json:"total_stars"`
	TotalForks    int    `json:"total_forks"`
	TotalWatchers int    `json:"total_watchers"`
	TopLanguage   string `json:"top_language"`
}

// NoLanguage is the TopLanguage sentinel when no repository has a language
const NoLanguage = "N/A"
