package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/jobsource"
	"github.com/spigell/jobgenius/internal/matching"
	"github.com/spigell/jobgenius/internal/service"
	"github.com/spigell/jobgenius/internal/storage"
	"github.com/spigell/jobgenius/internal/utils"
)

const (
	PromptExit                = "Exit"
	PromptReportByCompany     = "Report by company"
	PromptGapReport           = "Show skills gap"
	PromptJobsToFile          = "Dump matches to file"
	PromptAppendToExcludeFile = "Append all jobs to exclude file"
)

var errExit = errors.New("exit requested")

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank jobs against your skills",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	addCorpusFlags(matchCmd)
	matchCmd.Flags().IntP("top", "n", 20, "how many matches to print, 0 prints all")
	matchCmd.Flags().BoolP("yes", "y", false, "print the matches and exit without the interactive menu")
	matchCmd.Flags().StringP("exclude-file", "e", "", "file with jobs to exclude, overrides filters.exclude-file")

	viper.BindPFlag("filters.exclude-file", matchCmd.Flags().Lookup("exclude-file"))
}

func addCorpusFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("skills", "s", nil, "comma separated skills, overrides profile.skills")
	cmd.Flags().BoolP("external", "x", false, "use external job sources instead of local jobs")
	cmd.Flags().StringP("query", "q", "", "search query for the job corpus")
	cmd.Flags().Bool("refresh", false, "drop cached external jobs before searching")
}

// cliRun is the state shared by the match and gap commands.
type cliRun struct {
	ctx    context.Context
	logger *zap.Logger
	config *Config
	app    *application
	userID int64
	skills []string
	query  service.Query
}

func newCLIRun(cmd *cobra.Command) *cliRun {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// The CLI works on its own in-memory store so profile skills never leak into shared storage.
	memory := storage.NewMemory(logger.Named("storage"))
	if err := memory.Seed(ctx, storage.SampleJobs()); err != nil {
		logger.Fatal("seeding sample jobs", zap.Error(err))
	}

	application, err := buildApplication(ctx, config, memory, logger)
	if err != nil {
		logger.Fatal("building service", zap.Error(err))
	}

	skills, _ := cmd.Flags().GetStringSlice("skills")
	if len(skills) == 0 {
		skills = config.Profile.Skills
	}
	external, _ := cmd.Flags().GetBool("external")
	query, _ := cmd.Flags().GetString("query")

	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh && application.cache != nil {
		if err := application.cache.DeleteByPattern(ctx, jobsource.KeysPattern); err != nil {
			logger.Warn("dropping cached jobs", zap.Error(err))
		}
	}

	return &cliRun{
		ctx:    ctx,
		logger: logger,
		config: config,
		app:    application,
		userID: config.Profile.UserID,
		skills: utils.Dedupe(skills),
		query:  service.Query{External: external, Text: query},
	}
}

func match(cmd *cobra.Command) {
	run := newCLIRun(cmd)
	defer run.app.close()

	if len(run.skills) == 0 {
		run.logger.Warn("every job will score 0", zap.Error(errNoSkills))
	}

	ranked, err := run.app.service.RankForSkills(run.ctx, run.userID, run.skills, run.query)
	if err != nil {
		run.logger.Fatal("ranking jobs", zap.Error(err))
	}

	if len(ranked) == 0 {
		run.logger.Info("exiting", zap.String("reason", "no jobs found"))
		return
	}

	top, _ := cmd.Flags().GetInt("top")
	printMatches(matching.TopMatches(ranked, top))

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return
	}

	for {
		prompt := promptui.Select{
			Label: "What next?",
			Items: []string{PromptReportByCompany, PromptGapReport, PromptJobsToFile, PromptAppendToExcludeFile, PromptExit},
		}
		_, action, err := prompt.Run()
		if err != nil {
			run.logger.Fatal("exiting", zap.Error(err))
		}

		if err := run.handleAction(action, ranked); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			run.logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func (r *cliRun) handleAction(action string, ranked []matching.Match) error {
	corpus := jobs.New(postingsOf(ranked))

	switch action {
	case PromptExit:
		return errExit
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(corpus.ReportByCompany(), "", "  ")
		r.logger.Info(string(pretty), zap.Int("jobs count", corpus.Len()))
		return nil
	case PromptGapReport:
		gap, err := r.app.service.GapForSkills(r.ctx, r.userID, r.skills, r.query, matching.DefaultGapLimit)
		if err != nil {
			return err
		}
		printGap(gap)
		return nil
	case PromptJobsToFile:
		filename, err := jobs.DumpToTmpFile("jobgenius-matches-*.json", ranked)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		r.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return r.appendToExcludeFile(corpus)
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (r *cliRun) appendToExcludeFile(corpus *jobs.Jobs) error {
	excludeFile := strings.TrimSpace(r.config.Filters.ExcludeFile)
	if excludeFile == "" {
		r.logger.Warn("exclude file is not configured", zap.String("hint", "set filters.exclude-file or --exclude-file"))
		return nil
	}

	excluded, err := jobs.GetExcludedJobsFromFile(excludeFile)
	if err != nil {
		return err
	}
	excluded.Append(corpus.ToExcluded())

	if err := excluded.ToFile(excludeFile); err != nil {
		return err
	}

	r.logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", corpus.Len()))
	return errExit
}

func postingsOf(ranked []matching.Match) []jobs.JobPosting {
	out := make([]jobs.JobPosting, 0, len(ranked))
	for _, m := range ranked {
		out = append(out, m.Job)
	}
	return out
}

func printMatches(ranked []matching.Match) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tID\tTITLE\tCOMPANY\tLOCATION\tWHY")
	for _, m := range ranked {
		why := ""
		if len(m.MatchReasons) > 0 {
			why = m.MatchReasons[0]
		}
		fmt.Fprintf(w, "%d%%\t%d\t%s\t%s\t%s\t%s\n", m.MatchScore, m.Job.ID, m.Job.Title, m.Job.Company, m.Job.Location, why)
	}
	w.Flush()
}

func printGap(gap []matching.GapEntry) {
	if len(gap) == 0 {
		fmt.Println("No skill gaps found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SKILL\tIMPACT")
	for _, g := range gap {
		fmt.Fprintf(w, "%s\t%d%%\n", g.Name, g.ImpactPercent)
	}
	w.Flush()
}
