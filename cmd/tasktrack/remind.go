package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tasktrack-dev/tasktrack/internal/scheduler"
)

func remindCmd() *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send deadline reminders once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			if window <= 0 {
				window = cfg.Scheduler.Window
			}

			sent := scheduler.NewScheduler(a.dispatch, cfg.Scheduler.Interval, window).RunOnce(context.Background())
			fmt.Printf("Sent %d deadline reminders\n", sent)
			return nil
		},
	}

	cmd.Flags().DurationVarP(&window, "window", "w", 0, "look-ahead window (defaults to scheduler.window)")

	return cmd
}
