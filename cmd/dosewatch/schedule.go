package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/dosewatch/internal/config"
	"github.com/fentz26/dosewatch/internal/models"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show or replace the medicine schedule",
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List scheduled medicines",
	RunE:  runScheduleShow,
}

var scheduleLoadCmd = &cobra.Command{
	Use:   "load [file.yaml]",
	Short: "Replace the schedule with the medicines in a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleLoad,
}

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Show or replace emergency contacts",
}

var contactsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List emergency contacts",
	RunE:  runContactsShow,
}

var contactsLoadCmd = &cobra.Command{
	Use:   "load [file.yaml]",
	Short: "Replace emergency contacts with those in a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactsLoad,
}

func init() {
	scheduleCmd.AddCommand(scheduleShowCmd, scheduleLoadCmd)
	contactsCmd.AddCommand(contactsShowCmd, contactsLoadCmd)
}

func runScheduleShow(cmd *cobra.Command, args []string) error {
	var meds []models.Medicine
	if err := apiGet("/medicines", &meds); err != nil {
		return err
	}
	printMedicines(meds)
	return nil
}

func runScheduleLoad(cmd *cobra.Command, args []string) error {
	sc, err := config.LoadSchedule(args[0])
	if err != nil {
		return err
	}
	if sc.Medicines == nil {
		sc.Medicines = []models.Medicine{}
	}

	var saved []models.Medicine
	if err := apiPut("/medicines", sc.Medicines, &saved); err != nil {
		return err
	}
	fmt.Printf("Loaded %d medicines\n", len(saved))
	printMedicines(saved)
	return nil
}

func printMedicines(meds []models.Medicine) {
	if len(meds) == 0 {
		fmt.Println("No medicines scheduled")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDOSAGE\tTIMES")
	for _, m := range meds {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", truncateID(m.ID), truncate(m.Name, 30), m.Dosage, strings.Join(m.Times, ", "))
	}
	w.Flush()
}

func runContactsShow(cmd *cobra.Command, args []string) error {
	var contacts []models.Contact
	if err := apiGet("/contacts", &contacts); err != nil {
		return err
	}
	printContacts(contacts)
	return nil
}

func runContactsLoad(cmd *cobra.Command, args []string) error {
	sc, err := config.LoadSchedule(args[0])
	if err != nil {
		return err
	}
	if sc.Contacts == nil {
		sc.Contacts = []models.Contact{}
	}

	var saved []models.Contact
	if err := apiPut("/contacts", sc.Contacts, &saved); err != nil {
		return err
	}
	fmt.Printf("Loaded %d contacts\n", len(saved))
	printContacts(saved)
	return nil
}

func printContacts(contacts []models.Contact) {
	if len(contacts) == 0 {
		fmt.Println("No emergency contacts")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPHONE\tRELATION")
	for _, c := range contacts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", truncateID(c.ID), c.Name, c.Phone, c.Relation)
	}
	w.Flush()
}

// --- Helpers ---

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
