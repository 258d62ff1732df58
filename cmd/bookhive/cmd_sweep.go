package main

import (
	"encoding/json"
	"fmt"
	"time"

	"bookhive/internal/notify"
	"bookhive/internal/reminder"

	"github.com/spf13/cobra"
)

func (c *cli) sweepCmd() *cobra.Command {
	var lookahead time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Send due-soon and overdue reminders once",
		Long: `Runs a single reminder sweep over the open loans. Loans due within the
lookahead get a due-soon notice, loans past due an overdue notice. Each notice
is sent at most once per loan, so repeated sweeps are safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lookahead == 0 {
				lookahead = c.cfg.Reminder.Lookahead
			}
			mailer := notify.NewMailer(c.cfg.Mail.From, notify.NewLogTransport(c.log.Named("mail")), c.log.Named("notify"))
			svc := reminder.NewService(c.store.Loans, mailer, c.log.Named("reminder"),
				reminder.WithLookahead(lookahead),
				reminder.WithTimeout(c.cfg.Reminder.Timeout),
			)

			run, err := svc.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			if c.asJSON {
				return json.NewEncoder(c.out).Encode(run)
			}
			fmt.Fprintf(c.out, "scanned %d loans: %d due-soon, %d overdue, %d skipped, %d failed\n",
				run.Scanned, run.DueSoonSent, run.OverdueSent, run.Skipped, run.Failed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&lookahead, "lookahead", 0, "due-soon window (default REMINDER_LOOKAHEAD)")
	return cmd
}
