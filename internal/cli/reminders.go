package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var remindersClear bool

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Show unread location reminders",
	Long: `Show reminders raised by entering a list's region. Reminders are
recorded only with the local backend.

Examples:
  geotask reminders
  geotask reminders --clear`,
	RunE: runReminders,
}

func init() {
	remindersCmd.Flags().BoolVar(&remindersClear, "clear", false, "Mark every shown reminder as read")
}

func runReminders(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	s, err := rt.requireLocal("reminders")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	unread, err := s.GetUnreadNotifications(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(unread) == 0 {
		fmt.Fprintln(out, "No unread reminders.")
		return nil
	}
	for _, n := range unread {
		fmt.Fprintf(out, "%s  %s\n", n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message)
		if remindersClear {
			if err := s.MarkNotificationRead(ctx, n.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
