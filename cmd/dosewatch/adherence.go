package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/dosewatch/internal/adherence"
	"github.com/fentz26/dosewatch/internal/models"
	"github.com/spf13/cobra"
)

var adherenceCmd = &cobra.Command{
	Use:   "adherence",
	Short: "Report adherence from the ledger",
}

var adherenceTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's doses and their status",
	RunE:  runAdherenceToday,
}

var adherenceMonthCmd = &cobra.Command{
	Use:   "month [YYYY-MM]",
	Short: "Show a month's calendar and adherence rate",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAdherenceMonth,
}

var adherenceLogCmd = &cobra.Command{
	Use:   "log",
	Short: "List raw ledger records",
	RunE:  runAdherenceLog,
}

var (
	logFrom string
	logTo   string
)

func init() {
	adherenceCmd.AddCommand(adherenceTodayCmd, adherenceMonthCmd, adherenceLogCmd)

	adherenceLogCmd.Flags().StringVar(&logFrom, "from", "", "First date, YYYY-MM-DD")
	adherenceLogCmd.Flags().StringVar(&logTo, "to", "", "Last date, YYYY-MM-DD")
}

func runAdherenceToday(cmd *cobra.Command, args []string) error {
	var view adherence.FollowUpView
	if err := apiGet("/adherence/today", &view); err != nil {
		return err
	}

	fmt.Printf("Today %s: %d taken, %d missed, %d pending\n", view.Date, view.Taken, view.Missed, view.Pending)
	if len(view.Items) == 0 {
		fmt.Println("No doses scheduled")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tMEDICINE\tDOSAGE\tSTATUS")
	for _, it := range view.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.Time, truncate(it.Name, 30), it.Dosage, it.Status)
	}
	w.Flush()
	return nil
}

func runAdherenceMonth(cmd *cobra.Command, args []string) error {
	path := "/adherence/month"
	if len(args) == 1 {
		if _, _, err := adherence.ParseMonth(args[0]); err != nil {
			return err
		}
		path += "?month=" + url.QueryEscape(args[0])
	}

	var view adherence.MonthView
	if err := apiGet(path, &view); err != nil {
		return err
	}
	fmt.Print(formatMonth(view))
	return nil
}

// formatMonth renders a plain Sunday-first calendar: ✓ taken, ✗ missed.
func formatMonth(view adherence.MonthView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", view.Month, view.Year)
	b.WriteString(" Su  Mo  Tu  We  Th  Fr  Sa\n")

	col := int(view.FirstWeekday)
	b.WriteString(strings.Repeat("    ", col))
	for _, d := range view.Days {
		mark := " "
		if d.Past {
			switch d.Status {
			case adherence.Taken:
				mark = "✓"
			case adherence.Missed:
				mark = "✗"
			}
		}
		fmt.Fprintf(&b, "%3d%s", d.Day, mark)
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nTaken %d, missed %d, adherence %d%%\n", view.Taken, view.Missed, view.Rate)
	return b.String()
}

func runAdherenceLog(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	if logFrom != "" {
		q.Set("from", logFrom)
	}
	if logTo != "" {
		q.Set("to", logTo)
	}
	path := "/adherence"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var recs []models.AdherenceRecord
	if err := apiGet(path, &recs); err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No records found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tMEDICINE\tSTATUS\tDOSE\tRECORDED")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Date, truncateID(r.MedicineID), r.Status, r.DoseTime,
			r.RecordedAt.Local().Format("01-02 15:04"))
	}
	w.Flush()
	return nil
}
