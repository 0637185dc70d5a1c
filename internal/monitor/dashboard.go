package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30

	topPatternDisplay = 3
)

// Model represents the BubbleTea dashboard model
type Model struct {
	addr       string
	interval   time.Duration
	lastUpdate time.Time
	stats      StatsSnapshot
	err        error
	quitting   bool

	// Progress bars
	hitProgress  progress.Model
	loadProgress progress.Model
}

// StatsSnapshot holds the current stats data plus display state derived
// between polls.
type StatsSnapshot struct {
	ActiveConversations int
	Messages            int
	Hits                uint64
	Misses              uint64
	HitRate             float64
	TemplateCount       int
	Platform            PlatformStats
	Discovery           *DiscoveryStats

	// MessageRate is derived from consecutive polls; the daemon only
	// reports the running message total.
	MessageRate float64

	// Historical data for sparklines (last N points)
	ActiveHistory  []float64
	RateHistory    []float64
	HitRateHistory []float64
	CorpusHistory  []float64

	// Peak value for the load bar
	MessageRatePeak float64
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	// Header style - bright cyan background, bold black text
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	// Section title style - bold bright cyan
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	// Label style - dim cyan
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	// Value style - bright white
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	// Dim style - for units and secondary info
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// Status styles with unicode symbols
	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Container style - rounded border with dim gray
	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	// Footer style - bright keys on dim background
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	// Sparkline container
	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel creates a new dashboard model
func NewModel(addr string, interval time.Duration) Model {
	// Initialize progress bars with custom gradient
	hitProg := progress.New(
		progress.WithGradient("#00ffff", "#00ff00"),
		progress.WithWidth(40),
	)

	loadProg := progress.New(
		progress.WithGradient("#00ffff", "#ff00ff"),
		progress.WithWidth(40),
	)

	return Model{
		addr:         addr,
		interval:     interval,
		quitting:     false,
		hitProgress:  hitProg,
		loadProgress: loadProg,
		stats: StatsSnapshot{
			ActiveHistory:   make([]float64, 0, historySize),
			RateHistory:     make([]float64, 0, historySize),
			HitRateHistory:  make([]float64, 0, historySize),
			CorpusHistory:   make([]float64, 0, historySize),
			MessageRatePeak: 1.0, // Minimum peak to avoid division by zero
		},
	}
}

// getCacheBadge returns a colored status badge based on cache hit rate
func getCacheBadge(hitRate float64) string {
	if hitRate >= 0.5 {
		return healthyStyle.Render("[✓]")
	} else if hitRate >= 0.2 {
		return warningStyle.Render("[⚠]")
	}
	return dimStyle.Render("[·]")
}

// getStatusBadge returns the overall accelerator status badge
func getStatusBadge(hitRate float64) string {
	if hitRate >= 0.5 {
		return healthyStyle.Render("✓ ACCELERATED")
	} else if hitRate >= 0.2 {
		return warningStyle.Render("⚠ WARMING")
	}
	return dimStyle.Render("○ COLD")
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// createSparkline creates a sparkline chart from historical data
func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}

	return sparklineStyle.Render(spark.View())
}

// Message types
type tickMsg time.Time
type statsMsg Stats
type errMsg error

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		fetchStats(m.addr),
	)
}

// tick creates a tick command for auto-refresh
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchStats fetches the stats document from the daemon
func fetchStats(addr string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client := NewStatsClient(addr)
		stats, err := client.FetchStats(ctx)
		if err != nil {
			return errMsg(err)
		}
		return statsMsg(stats)
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchStats(m.addr)
		}

	case tickMsg:
		// Auto-refresh triggered
		return m, tea.Batch(
			tick(m.interval),
			fetchStats(m.addr),
		)

	case statsMsg:
		stats := Stats(msg)

		next := StatsSnapshot{
			ActiveConversations: stats.Accel.ActiveConversations,
			Messages:            stats.Accel.Messages,
			Hits:                stats.Accel.Hits,
			Misses:              stats.Accel.Misses,
			HitRate:             stats.Accel.HitRate,
			TemplateCount:       stats.TemplateCount,
			Platform:            stats.Accel.Platform,
			Discovery:           stats.Discovery,
		}

		// Throughput from the message-total delta since the last poll
		if !m.lastUpdate.IsZero() && stats.Accel.Messages >= m.stats.Messages {
			elapsed := time.Since(m.lastUpdate).Seconds()
			if elapsed > 0 {
				next.MessageRate = float64(stats.Accel.Messages-m.stats.Messages) / elapsed
			}
		}

		// Preserve historical data and update ring buffers
		next.ActiveHistory = appendToHistory(m.stats.ActiveHistory, float64(next.ActiveConversations))
		next.RateHistory = appendToHistory(m.stats.RateHistory, next.MessageRate)
		next.HitRateHistory = appendToHistory(m.stats.HitRateHistory, next.HitRate*100)
		if next.Discovery != nil {
			next.CorpusHistory = appendToHistory(m.stats.CorpusHistory, float64(next.Discovery.CorpusSize))
		} else {
			next.CorpusHistory = m.stats.CorpusHistory
		}

		// Update peak
		next.MessageRatePeak = m.stats.MessageRatePeak
		if next.MessageRate > next.MessageRatePeak {
			next.MessageRatePeak = next.MessageRate
		}

		m.stats = next
		m.lastUpdate = time.Now()
		m.err = nil
		return m, nil

	case errMsg:
		// Error occurred
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	// Display error state if error exists
	if m.err != nil {
		return m.renderError()
	}

	return m.renderDashboard()
}

// renderError renders the error view
func (m Model) renderError() string {
	header := headerStyle.Render(" aurad Monitor ")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot reach aurad") + "\n"
	content += "\n"
	content += dimStyle.Render("Address: ") + valueStyle.Render(m.addr) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += dimStyle.Render("Please ensure:") + "\n"
	content += dimStyle.Render("  1. the daemon is running (aurad --config aurad.yaml)") + "\n"
	content += dimStyle.Render("  2. it is listening at the address above") + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit  [r] retry") + "\n"

	box := containerStyle.Render(header + "\n" + content)
	return box
}

// renderDashboard renders the main dashboard view with sparklines and
// progress bars
func (m Model) renderDashboard() string {
	var content string

	// Header with status badge
	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}

	header := headerStyle.Render(" aurad Monitor ")
	statusBadge := getStatusBadge(m.stats.HitRate)
	headerLine := fmt.Sprintf("%s   %s %s   %s",
		statusBadge,
		dimStyle.Render("Templates:"),
		valueStyle.Render(fmt.Sprintf("%d", m.stats.TemplateCount)),
		dimStyle.Render(lastUpdateStr))

	content += header + "\n"
	content += headerLine + "\n"

	// Conversations section with sparklines and load bar
	content += "\n" + sectionStyle.Render("┃ Conversations") + "\n"

	activeSparkline := createSparkline(m.stats.ActiveHistory)
	content += labelStyle.Render("  Active: ") +
		valueStyle.Render(fmt.Sprintf("%d", m.stats.ActiveConversations)) +
		"        " + activeSparkline + "\n"

	rateSparkline := createSparkline(m.stats.RateHistory)
	content += labelStyle.Render("  Throughput: ") +
		valueStyle.Render(FormatRate(m.stats.MessageRate)) +
		"   " + rateSparkline + "\n"

	ratePercent := 0.0
	if m.stats.MessageRatePeak > 0 {
		ratePercent = m.stats.MessageRate / m.stats.MessageRatePeak
		if ratePercent > 1.0 {
			ratePercent = 1.0
		}
	}
	content += labelStyle.Render("  Load: ") +
		m.loadProgress.ViewAs(ratePercent) +
		" " + dimStyle.Render(fmt.Sprintf("%.0f%%", ratePercent*100)) + "\n"

	// Pattern cache section with hit-rate bar
	content += "\n" + sectionStyle.Render("┃ Pattern Cache") + "\n"

	hitSparkline := createSparkline(m.stats.HitRateHistory)
	cacheBadge := getCacheBadge(m.stats.HitRate)
	content += labelStyle.Render("  Hit Rate: ") +
		valueStyle.Render(FormatPercent(m.stats.HitRate)) +
		" " + cacheBadge +
		"   " + hitSparkline + "\n"

	hitPercent := m.stats.HitRate
	if hitPercent > 1.0 {
		hitPercent = 1.0
	}
	content += labelStyle.Render("  Progress: ") +
		m.hitProgress.ViewAs(hitPercent) +
		" " + dimStyle.Render(fmt.Sprintf("%.0f%%", hitPercent*100)) + "\n"

	content += labelStyle.Render("  Hits: ") +
		valueStyle.Render(FormatCount(m.stats.Hits)) +
		"  " +
		labelStyle.Render("Misses: ") +
		valueStyle.Render(FormatCount(m.stats.Misses)) + "\n"

	// Platform learning section
	content += "\n" + sectionStyle.Render("┃ Platform") + "\n"

	content += labelStyle.Render("  Absorbed: ") +
		valueStyle.Render(FormatCount(m.stats.Platform.Conversations)) +
		" " + dimStyle.Render("conversations") + "\n"

	content += labelStyle.Render("  Tracked: ") +
		valueStyle.Render(fmt.Sprintf("%d", m.stats.Platform.TrackedPatterns)) +
		" " + dimStyle.Render("patterns") + "\n"

	content += labelStyle.Render("  Top: ") + formatTopPatterns(m.stats.Platform.TopPatterns) + "\n"
	content += labelStyle.Render("  Types: ") + formatTypeCounts(m.stats.Platform.Types) + "\n"

	// Discovery section, only when the daemon runs a discovery worker
	if m.stats.Discovery != nil {
		content += "\n" + sectionStyle.Render("┃ Discovery") + "\n"

		corpusSparkline := createSparkline(m.stats.CorpusHistory)
		content += labelStyle.Render("  Corpus: ") +
			valueStyle.Render(fmt.Sprintf("%d", m.stats.Discovery.CorpusSize)) +
			" " + dimStyle.Render("pending") +
			"   " + corpusSparkline + "\n"
	}

	// Footer with keyboard shortcuts
	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))

	content += "\n" + footer

	// Wrap in container
	return containerStyle.Render(content)
}

// formatTopPatterns renders the hottest signatures on one line
func formatTopPatterns(patterns []PatternCount) string {
	if len(patterns) == 0 {
		return dimStyle.Render("none yet")
	}

	limit := topPatternDisplay
	if len(patterns) < limit {
		limit = len(patterns)
	}

	parts := make([]string, 0, limit)
	for _, p := range patterns[:limit] {
		parts = append(parts, valueStyle.Render(FormatSignature(p.Signature))+
			dimStyle.Render(fmt.Sprintf("×%d", p.Count)))
	}
	return strings.Join(parts, "  ")
}

// formatTypeCounts renders conversation type tallies in stable order
func formatTypeCounts(types map[string]uint64) string {
	if len(types) == 0 {
		return dimStyle.Render("none")
	}

	keys := make([]string, 0, len(types))
	for k := range types {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, dimStyle.Render(k+"=")+valueStyle.Render(fmt.Sprintf("%d", types[k])))
	}
	return strings.Join(parts, "  ")
}
