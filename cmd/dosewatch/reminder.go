package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fentz26/dosewatch/internal/models"
	"github.com/spf13/cobra"
)

var reminderCmd = &cobra.Command{
	Use:   "reminder",
	Short: "Answer the open reminder",
}

var reminderShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the open reminder",
	RunE:  runReminderShow,
}

var reminderTakenCmd = &cobra.Command{
	Use:   "taken",
	Short: "Mark the open reminder's dose as taken",
	RunE:  runReminderTaken,
}

var reminderLaterCmd = &cobra.Command{
	Use:   "later",
	Short: "Snooze the open reminder",
	RunE:  runReminderLater,
}

var reminderDismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Dismiss the open reminder and record the dose as missed",
	RunE:  runReminderDismiss,
}

var reminderSnoozesCmd = &cobra.Command{
	Use:   "snoozes",
	Short: "List snoozed reminders",
	RunE:  runReminderSnoozes,
}

func init() {
	reminderCmd.AddCommand(reminderShowCmd, reminderTakenCmd, reminderLaterCmd, reminderDismissCmd, reminderSnoozesCmd)
}

func runReminderShow(cmd *cobra.Command, args []string) error {
	var st models.ReminderState
	if err := apiGet("/reminder", &st); err != nil {
		return err
	}
	if !st.Open || st.Medicine == nil {
		fmt.Println("No reminder open")
		return nil
	}

	fmt.Printf("Medicine:  %s\n", st.Medicine.Name)
	if st.Medicine.Dosage != "" {
		fmt.Printf("Dosage:    %s\n", st.Medicine.Dosage)
	}
	fmt.Printf("Scheduled: %s\n", st.Time)
	fmt.Printf("Reminder:  %s\n", st.Label)
	return nil
}

func runReminderTaken(cmd *cobra.Command, args []string) error {
	var rec models.AdherenceRecord
	if err := apiPost("/reminder/taken", nil, &rec); err != nil {
		return err
	}
	fmt.Printf("Recorded %s as taken on %s\n", rec.MedicineID, rec.Date)
	return nil
}

func runReminderLater(cmd *cobra.Command, args []string) error {
	var sn models.SnoozedReminder
	if err := apiPost("/reminder/snooze", nil, &sn); err != nil {
		return err
	}
	fmt.Printf("Snoozed until %s\n", sn.Until.Local().Format("15:04"))
	return nil
}

func runReminderDismiss(cmd *cobra.Command, args []string) error {
	var rec models.AdherenceRecord
	if err := apiPost("/reminder/dismiss", nil, &rec); err != nil {
		return err
	}
	fmt.Printf("Recorded %s as missed on %s\n", rec.MedicineID, rec.Date)
	return nil
}

func runReminderSnoozes(cmd *cobra.Command, args []string) error {
	var snoozes []models.SnoozedReminder
	if err := apiGet("/snoozes", &snoozes); err != nil {
		return err
	}
	if len(snoozes) == 0 {
		fmt.Println("No snoozed reminders")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REMINDER\tMEDICINE\tUNTIL")
	for _, sn := range snoozes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", sn.Label, truncateID(sn.MedicineID), sn.Until.Local().Format("15:04:05"))
	}
	w.Flush()
	return nil
}
