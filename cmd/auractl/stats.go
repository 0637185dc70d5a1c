// Package main implements the stats and monitor commands for the auractl CLI.
package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/aurad/internal/monitor"
)

var (
	// monitorRefresh is the dashboard poll interval
	monitorRefresh time.Duration
)

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationVar(&monitorRefresh, "interval", 2*time.Second, "dashboard refresh interval")
}

// statsCmd prints a one-shot stats summary
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aurad acceleration statistics",
	Long: `Print a snapshot of the daemon's conversation, cache, platform,
and discovery statistics.

Examples:
  auractl stats
  auractl stats --server http://aurad.internal:8741`,
	RunE: runStats,
}

// monitorCmd runs the live terminal dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live terminal dashboard for aurad",
	Long: `Run a full-screen terminal dashboard polling the aurad stats API.

Shows conversation throughput, cache hit rates, platform-wide pattern
learning, and discovery corpus growth with rolling sparklines.

Examples:
  auractl monitor
  auractl monitor --interval 5s`,
	RunE: runMonitor,
}

// runStats handles the stats command
func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := monitor.NewStatsClient(serverURL)
	stats, err := client.FetchStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch stats from %s: %w", serverURL, err)
	}

	fmt.Printf("Conversations: %d active, %s messages\n",
		stats.Accel.ActiveConversations, monitor.FormatCount(uint64(stats.Accel.Messages)))
	fmt.Printf("Cache:         %s hits, %s misses (%s)\n",
		monitor.FormatCount(stats.Accel.Hits), monitor.FormatCount(stats.Accel.Misses),
		monitor.FormatPercent(stats.Accel.HitRate))
	fmt.Printf("Templates:     %d registered\n", stats.TemplateCount)
	fmt.Printf("Platform:      %s conversations absorbed, %d patterns tracked\n",
		monitor.FormatCount(stats.Accel.Platform.Conversations),
		stats.Accel.Platform.TrackedPatterns)
	for _, p := range stats.Accel.Platform.TopPatterns {
		fmt.Printf("  %s x%d\n", monitor.FormatSignature(p.Signature), p.Count)
	}
	if stats.Discovery != nil {
		fmt.Printf("Discovery:     %d texts pending\n", stats.Discovery.CorpusSize)
	}

	return nil
}

// runMonitor handles the monitor command
func runMonitor(cmd *cobra.Command, args []string) error {
	model := monitor.NewModel(serverURL, monitorRefresh)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor failed: %w", err)
	}

	return nil
}
