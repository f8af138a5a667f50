package main

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/fentz26/dosewatch/internal/models"
	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Browse and act on the notification center",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, newest first",
	RunE:  runNotificationsList,
}

var notificationsTakenCmd = &cobra.Command{
	Use:   "taken [notification-id]",
	Short: "Mark the notification's medicine as taken",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsTaken,
}

var notificationsSnoozeCmd = &cobra.Command{
	Use:   "snooze [notification-id]",
	Short: "Remind again about the notification's medicine later",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsSnooze,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark a notification read, or all of them with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNotificationsRead,
}

var (
	notifMedicine string
	notifUnread   bool
	notifReadAll  bool
)

func init() {
	notificationsCmd.AddCommand(notificationsListCmd, notificationsTakenCmd, notificationsSnoozeCmd, notificationsReadCmd)

	notificationsListCmd.Flags().BoolVar(&notifUnread, "unread", false, "Only show unread notifications")
	notificationsTakenCmd.Flags().StringVar(&notifMedicine, "medicine", "", "Medicine ID (defaults to the notification's)")
	notificationsSnoozeCmd.Flags().StringVar(&notifMedicine, "medicine", "", "Medicine ID (defaults to the notification's)")
	notificationsReadCmd.Flags().BoolVar(&notifReadAll, "all", false, "Mark every notification read")
}

type notificationFeed struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

func runNotificationsList(cmd *cobra.Command, args []string) error {
	var feed notificationFeed
	if err := apiGet("/notifications", &feed); err != nil {
		return err
	}

	fmt.Printf("%d unread\n", feed.Unread)
	if len(feed.Notifications) == 0 {
		fmt.Println("No notifications")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tID\tTYPE\tTIME\tMESSAGE")
	for _, n := range feed.Notifications {
		if notifUnread && n.Read {
			continue
		}
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, n.ID, n.Type,
			n.CreatedAt.Local().Format("01-02 15:04"), truncate(n.Message, 50))
	}
	w.Flush()
	return nil
}

func runNotificationsTaken(cmd *cobra.Command, args []string) error {
	var rec models.AdherenceRecord
	body := map[string]string{"medicine_id": notifMedicine}
	if err := apiPost("/notifications/"+url.PathEscape(args[0])+"/taken", body, &rec); err != nil {
		return err
	}
	fmt.Printf("Recorded %s as taken on %s\n", rec.MedicineID, rec.Date)
	return nil
}

func runNotificationsSnooze(cmd *cobra.Command, args []string) error {
	var sn models.SnoozedReminder
	body := map[string]string{"medicine_id": notifMedicine}
	if err := apiPost("/notifications/"+url.PathEscape(args[0])+"/snooze", body, &sn); err != nil {
		return err
	}
	fmt.Printf("Snoozed until %s\n", sn.Until.Local().Format("15:04"))
	return nil
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	if notifReadAll {
		var res struct {
			Marked int `json:"marked"`
		}
		if err := apiPost("/notifications/read", nil, &res); err != nil {
			return err
		}
		fmt.Printf("Marked %d notifications read\n", res.Marked)
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("notification id required (or --all)")
	}
	if err := apiPost("/notifications/"+url.PathEscape(args[0])+"/read", nil, nil); err != nil {
		return err
	}
	fmt.Printf("Marked %s read\n", args[0])
	return nil
}
