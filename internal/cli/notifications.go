package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/ogulcanaydogan/binwatch/pkg/model"
	"github.com/ogulcanaydogan/binwatch/pkg/monitor"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Inspect, sync and reset full-bin notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications",
	RunE:  runNotificationsList,
}

var notificationsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Derive notifications from today's readings and deliver unread ones once",
	RunE:  runNotificationsSync,
}

var notificationsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every notification",
	RunE:  runNotificationsReset,
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsSyncCmd)
	notificationsCmd.AddCommand(notificationsResetCmd)

	notificationsListCmd.Flags().Bool("unread", false, "Only show unread notifications")
	notificationsListCmd.Flags().Bool("today", false, "Only show notifications created today")

	notificationsResetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}

func runNotificationsList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	unread, _ := cmd.Flags().GetBool("unread")
	today, _ := cmd.Flags().GetBool("today")

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	filter := model.NotificationFilter{UnreadOnly: unread}
	if today {
		loc, err := cfg.Monitor.Location()
		if err != nil {
			return err
		}
		filter.StartTime, filter.EndTime = model.DayBounds(time.Now(), loc)
	}

	notifications, err := store.QueryNotifications(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("query notifications: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(notifications) == 0 {
		fmt.Fprintln(out, "No notifications.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TIMESTAMP\tTITLE\tREAD\tREADING\n")
	for _, n := range notifications {
		read := "no"
		if n.IsRead {
			read = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			n.Timestamp.Local().Format("2006-01-02 15:04"), n.Title, read, n.FillID)
	}
	w.Flush()

	return nil
}

func runNotificationsSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mon, store, err := initMonitor(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	created, shown, err := mon.SyncOnce(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %d notifications, delivered %d\n", created, shown)
	return nil
}

func runNotificationsReset(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirm(cmd, "Are you sure you want to reset the notifications?") {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	mon, store, err := initMonitor(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := mon.ResetNotifications(cmd.Context())
	if errors.Is(err, monitor.ErrNothingToReset) {
		fmt.Fprintln(cmd.OutOrStdout(), "No data found to reset.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to reset the notifications: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Successfully reset the notifications (%d deleted)\n", deleted)
	return nil
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
