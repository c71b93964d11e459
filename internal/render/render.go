package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/kurihiro0119/devpulse/internal/aggregator"
	"github.com/kurihiro0119/devpulse/internal/collector"
	"github.com/kurihiro0119/devpulse/internal/dashboard"
	"github.com/kurihiro0119/devpulse/internal/domain"
)

var (
	titleColor   = color.New(color.FgHiWhite, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	linkColor    = color.New(color.FgCyan)
)

// Renderer writes dashboard views as terminal text
type Renderer struct {
	w      io.Writer
	repos  bool
	events bool
}

// Option configures a Renderer
type Option func(*Renderer)

// WithRepositories toggles the repository table
func WithRepositories(on bool) Option { return func(r *Renderer) { r.repos = on } }

// WithEvents toggles the activity timeline
func WithEvents(on bool) Option { return func(r *Renderer) { r.events = on } }

// New creates a renderer writing to w
func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{w: w, repos: true, events: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// View renders a dashboard view in any state
func (r *Renderer) View(v dashboard.View) {
	switch v.State {
	case dashboard.StateIdle:
		mutedColor.Fprintln(r.w, "Search for a GitHub user to see their dashboard.")
	case dashboard.StateLoading:
		mutedColor.Fprintf(r.w, "Loading %s...\n", v.Username)
	case dashboard.StateError:
		r.Error(v.Message, v.NotFound)
	case dashboard.StateReady:
		if v.Summary != nil {
			r.Summary(v.Summary)
		}
		if v.ShareURL != "" {
			fmt.Fprintf(r.w, "\nShare: %s\n", linkColor.Sprint(v.ShareURL))
		}
	}
}

// Error renders a failed load
func (r *Renderer) Error(message string, notFound bool) {
	if notFound {
		warningColor.Fprintln(r.w, "User not found")
		mutedColor.Fprintln(r.w, "Check the spelling of the username and try again.")
		return
	}
	errorColor.Fprintln(r.w, "Something went wrong")
	fmt.Fprintln(r.w, message)
}

// Summary renders every dashboard section
func (r *Renderer) Summary(s *aggregator.Summary) {
	r.Profile(s.Profile)
	r.Totals(s.Profile, s.Totals)
	r.Languages(s.Languages)
	if r.repos {
		r.Repositories(s.TopRepositories)
	}
	r.Heatmap(s.Contributions, s.TotalContributions)
	if r.events {
		r.Timeline(s.Timeline)
	}
}

// Profile renders the user header
func (r *Renderer) Profile(p *domain.Profile) {
	if p == nil {
		return
	}
	fmt.Fprintln(r.w)
	titleColor.Fprint(r.w, p.DisplayName())
	if p.Name != "" {
		mutedColor.Fprintf(r.w, " @%s", p.Login)
	}
	fmt.Fprintln(r.w)
	if p.Bio != "" {
		fmt.Fprintln(r.w, p.Bio)
	}

	var details []string
	for _, d := range []string{p.Location, p.Company, p.Blog, p.Email} {
		if d != "" {
			details = append(details, d)
		}
	}
	if p.TwitterUsername != "" {
		details = append(details, "@"+p.TwitterUsername)
	}
	if !p.CreatedAt.IsZero() {
		details = append(details, "Joined "+p.CreatedAt.Format(aggregator.AbsoluteDateLayout))
	}
	if len(details) > 0 {
		mutedColor.Fprintln(r.w, strings.Join(details, " · "))
	}
	linkColor.Fprintln(r.w, p.HTMLURL)
}

// Totals renders the headline counters
func (r *Renderer) Totals(p *domain.Profile, t domain.TotalStats) {
	fmt.Fprintln(r.w)
	table := tablewriter.NewWriter(r.w)
	table.SetHeader([]string{"Metric", "Value"})
	if p != nil {
		table.Append([]string{"Followers", strconv.Itoa(p.Followers)})
		table.Append([]string{"Following", strconv.Itoa(p.Following)})
		table.Append([]string{"Public Repos", strconv.Itoa(p.PublicRepos)})
	}
	table.Append([]string{"Total Stars", strconv.Itoa(t.TotalStars)})
	table.Append([]string{"Total Forks", strconv.Itoa(t.TotalForks)})
	table.Append([]string{"Top Language", t.TopLanguage})
	table.Render()
}

// Languages renders the language breakdown
func (r *Renderer) Languages(stats []domain.LanguageStat) {
	fmt.Fprintln(r.w)
	titleColor.Fprintln(r.w, "Languages")
	if len(stats) == 0 {
		mutedColor.Fprintln(r.w, "No language data")
		return
	}

	table := tablewriter.NewWriter(r.w)
	table.SetHeader([]string{"Language", "Repos", "Share", ""})
	for _, s := range stats {
		table.Append([]string{
			s.Language,
			strconv.Itoa(s.Count),
			fmt.Sprintf("%d%%", s.Percentage),
			bar(s.Percentage, 20),
		})
	}
	table.Render()
}

// Repositories renders the star-ranked repositories
func (r *Renderer) Repositories(repos []*domain.Repository) {
	fmt.Fprintln(r.w)
	titleColor.Fprintln(r.w, "Top Repositories")
	if len(repos) == 0 {
		mutedColor.Fprintln(r.w, "No public repositories")
		return
	}

	table := tablewriter.NewWriter(r.w)
	table.SetHeader([]string{"Name", "Language", "Stars", "Forks", "Updated"})
	for _, repo := range repos {
		name := repo.Name
		if repo.Fork {
			name += " (fork)"
		}
		lang := repo.Language
		if lang == "" {
			lang = "-"
		}
		table.Append([]string{
			name,
			lang,
			strconv.Itoa(repo.StargazersCount),
			strconv.Itoa(repo.ForksCount),
			aggregator.RelativeTime(repo.UpdatedAt),
		})
	}
	table.Render()
}

// Timeline renders the recent activity feed
func (r *Renderer) Timeline(entries []aggregator.TimelineEntry) {
	fmt.Fprintln(r.w)
	titleColor.Fprintln(r.w, "Recent Activity")
	if len(entries) == 0 {
		mutedColor.Fprintln(r.w, "No recent public activity")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(r.w, "  %s  %s\n", e.Label, mutedColor.Sprint(e.When))
	}
}

// Quota renders the last observed GitHub quota
func (r *Renderer) Quota(q collector.Quota) {
	if !q.Observed {
		return
	}
	line := fmt.Sprintf("GitHub API quota: %d/%d remaining", q.Remaining, q.Limit)
	if !q.Reset.IsZero() {
		line += ", resets at " + q.Reset.Local().Format("15:04:05")
	}
	fmt.Fprintln(r.w)
	if q.Remaining == 0 {
		warningColor.Fprintln(r.w, line)
		return
	}
	mutedColor.Fprintln(r.w, line)
}

// RecentSearches renders the search history
func (r *Renderer) RecentSearches(usernames []string) {
	if len(usernames) == 0 {
		mutedColor.Fprintln(r.w, "No recent searches")
		return
	}
	titleColor.Fprintln(r.w, "Recent searches")
	for i, u := range usernames {
		fmt.Fprintf(r.w, "  %d. %s\n", i+1, u)
	}
}

func bar(percent, width int) string {
	filled := (percent*width + 50) / 100
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
