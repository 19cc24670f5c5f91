// Package collectors provides the collectors command for field team tracking.
package collectors

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vectorcam/vectorinsight/cmd/cmdutil"
	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/fieldteam"
	"github.com/vectorcam/vectorinsight/internal/logger"
)

// Command creates and returns the collectors command and its subcommands
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collectors",
		Short: "Manage field collectors, training and submissions",
	}

	cmd.AddCommand(
		summaryCommand(settings),
		attentionCommand(settings),
		registerCommand(settings),
		trainCommand(settings),
		dailyCommand(settings),
	)
	return cmd
}

// withTracker opens the store, ensures the field team schema and calls fn.
func withTracker(ctx context.Context, settings *conf.Settings, fn func(*fieldteam.Tracker) error) error {
	log := cmdutil.Logger("collectors")
	store, err := cmdutil.OpenStore(settings, log, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close store", logger.Error(err))
		}
	}()

	tracker := fieldteam.NewTracker(store.Gorm(), log)
	if err := tracker.EnsureSchema(ctx); err != nil {
		return err
	}
	return fn(tracker)
}

func summaryCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print activity and training status for every collector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd.Context(), settings, func(t *fieldteam.Tracker) error {
				rows, err := t.CollectorSummary(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), rows)
				return nil
			})
		},
	}
}

func attentionCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "attention",
		Short: "Print collectors that are inactive or due for training",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd.Context(), settings, func(t *fieldteam.Tracker) error {
				rows, err := t.CollectorsNeedingAttention(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no collectors need attention")
					return nil
				}
				printSummary(cmd.OutOrStdout(), rows)
				return nil
			})
		},
	}
}

func printSummary(w io.Writer, rows []fieldteam.CollectorSummary) {
	t := cmdutil.NewTable(w, "Collector", "District", "Site", "Last Submission", "Days", "Activity",
		"Last Training", "Training", "Houses", "Specimens")
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.CollectorName, r.District, r.Site,
			cmdutil.FormatDate(r.LastSubmissionDate), cmdutil.FormatDays(r.DaysSinceSubmission), r.ActivityStatus,
			cmdutil.FormatDate(r.LastTrainingDate), r.TrainingStatus,
			r.TotalHouses, r.TotalSpecimens,
		})
	}
	t.Render()
}

func registerCommand(settings *conf.Settings) *cobra.Command {
	var c fieldteam.Collector

	cmd := &cobra.Command{
		Use:   "register NAME",
		Short: "Register a field collector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.CollectorName = args[0]
			return withTracker(cmd.Context(), settings, func(t *fieldteam.Tracker) error {
				got, err := t.RegisterCollector(cmd.Context(), c)
				if errors.Is(err, fieldteam.ErrAlreadyRegistered) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "collector %q is already registered (id %d)\n", got.CollectorName, got.CollectorID)
					return nil
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered collector %q (id %d)\n", got.CollectorName, got.CollectorID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&c.District, "district", "", "District")
	cmd.Flags().StringVar(&c.Site, "site", "", "Site name")
	cmd.Flags().StringVar(&c.Role, "role", fieldteam.DefaultRole, "Role")
	cmd.Flags().StringVar(&c.PhoneNumber, "phone", "", "Phone number")
	cmd.Flags().StringVar(&c.Email, "email", "", "E-mail address")
	return cmd
}

func trainCommand(settings *conf.Settings) *cobra.Command {
	var (
		tr    fieldteam.Training
		date  string
		score float64
	)

	cmd := &cobra.Command{
		Use:   "train NAME",
		Short: "Add a training record for a collector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := cmdutil.ParseDate("date", date)
			if err != nil {
				return err
			}
			if d == nil {
				return errors.ValidationError("--date is required")
			}
			tr.CollectorName = args[0]
			tr.Date = *d
			if cmd.Flags().Changed("score") {
				tr.Score = &score
			}

			return withTracker(cmd.Context(), settings, func(t *fieldteam.Tracker) error {
				rec, err := t.AddTrainingRecord(cmd.Context(), tr)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s training for %q on %s\n",
					rec.TrainingType, tr.CollectorName, rec.TrainingDate.Format(time.DateOnly))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Training date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&tr.Type, "type", fieldteam.DefaultTrainingType, "Training type")
	cmd.Flags().StringVar(&tr.TrainerName, "trainer", "", "Trainer name")
	cmd.Flags().StringVar(&tr.Topics, "topics", "", "Topics covered")
	cmd.Flags().Float64Var(&score, "score", 0, "Assessment score")
	cmd.Flags().StringVar(&tr.Certification, "certification", fieldteam.DefaultCertification, "Certification status")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func dailyCommand(settings *conf.Settings) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Print submissions per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := cmdutil.ParseDate("from", from)
			if err != nil {
				return err
			}
			end, err := cmdutil.ParseDate("to", to)
			if err != nil {
				return err
			}

			return withTracker(cmd.Context(), settings, func(t *fieldteam.Tracker) error {
				days, err := t.DailySubmissionSummary(cmd.Context(), start, end)
				if err != nil {
					return err
				}
				tw := cmdutil.NewTable(cmd.OutOrStdout(), "Date", "Collectors", "Submissions", "Houses", "Specimens")
				for _, d := range days {
					tw.AppendRow(table.Row{d.Date.Format(time.DateOnly), d.Collectors, d.Submissions, d.Houses, d.Specimens})
				}
				tw.Render()
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD)")
	return cmd
}
