package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/gyges/pkg/cli/config"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/usecase"
)

func cmdReport() *cli.Command {
	var groupID string
	var days int
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "group",
			Aliases:     []string{"g"},
			Usage:       "Group ID to report on",
			Required:    true,
			Sources:     cli.EnvVars("GYGES_REPORT_GROUP"),
			Destination: &groupID,
		},
		&cli.IntFlag{
			Name:        "days",
			Aliases:     []string{"d"},
			Usage:       "Report window in days (0 for full history)",
			Value:       30,
			Sources:     cli.EnvVars("GYGES_REPORT_DAYS"),
			Destination: &days,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "report",
		Aliases: []string{"r"},
		Usage:   "Print period statistics for a group",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}

			registry, err := usecase.New(ctx, repo)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize registry")
			}

			stats, err := registry.PeriodReport(ctx, types.GroupID(groupID), days)
			if err != nil {
				return goerr.Wrap(err, "failed to build report")
			}

			printReport(groupID, days, stats)
			return nil
		},
	}
}

func printReport(groupID string, days int, stats *usecase.ReportStats) {
	header := color.New(color.FgHiWhite, color.Bold)
	if days > 0 {
		header.Printf("Report for %s (last %d days)\n\n", groupID, days)
	} else {
		header.Printf("Report for %s (full history)\n\n", groupID)
	}

	fmt.Printf("Actions:    %d (%d with result)\n", stats.TotalActions, stats.CompletedActions)
	fmt.Printf("Victories:  %s\n", color.New(color.FgHiGreen).Sprintf("%d", stats.Victories))
	fmt.Printf("Defeats:    %s\n", color.New(color.FgRed).Sprintf("%d", stats.Defeats))
	fmt.Printf("Inactive:   %s\n", color.New(color.FgHiBlack).Sprintf("%d", stats.Inactivities))

	if len(stats.ParticipationCount) == 0 {
		return
	}

	fmt.Println()
	color.New(color.FgHiWhite).Println("Participation:")
	for _, userID := range sortedUsers(stats.ParticipationCount) {
		line := fmt.Sprintf("  %-20s %3d joined", userID, stats.ParticipationCount[userID])
		if wins := stats.VictoryCount[userID]; wins > 0 {
			line += color.New(color.FgHiGreen).Sprintf("  %d victories", wins)
		}
		fmt.Println(line)
	}

	if len(stats.CoordinatorCount) > 0 {
		fmt.Println()
		color.New(color.FgHiWhite).Println("Coordinators:")
		for _, userID := range sortedUsers(stats.CoordinatorCount) {
			fmt.Printf("  %-20s %3d\n", userID, stats.CoordinatorCount[userID])
		}
	}
}

// sortedUsers orders users by descending count, then by ID for stability
func sortedUsers(counts map[types.UserID]int) []types.UserID {
	users := make([]types.UserID, 0, len(counts))
	for u := range counts {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if counts[users[i]] != counts[users[j]] {
			return counts[users[i]] > counts[users[j]]
		}
		return users[i] < users[j]
	})
	return users
}
