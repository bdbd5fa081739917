package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/matching"
)

var gapCmd = &cobra.Command{
	Use:   "gap",
	Short: "Report the most demanded skills you are missing",
	Run: func(cmd *cobra.Command, _ []string) {
		gap(cmd)
	},
}

func init() {
	rootCmd.AddCommand(gapCmd)

	addCorpusFlags(gapCmd)
	gapCmd.Flags().IntP("top", "n", matching.DefaultGapLimit, "how many gap skills to report, 0 reports all")
}

func gap(cmd *cobra.Command) {
	run := newCLIRun(cmd)
	defer run.app.close()

	top, _ := cmd.Flags().GetInt("top")

	entries, err := run.app.service.GapForSkills(run.ctx, run.userID, run.skills, run.query, top)
	if err != nil {
		run.logger.Fatal("analyzing skills gap", zap.Error(err))
	}

	run.logger.Debug("skills gap analyzed", zap.Strings("skills", run.skills), zap.Int("entries", len(entries)))
	printGap(entries)
}
