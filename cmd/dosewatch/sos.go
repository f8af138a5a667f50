package main

import (
	"fmt"
	"strings"

	"github.com/fentz26/dosewatch/internal/reminder"
	"github.com/spf13/cobra"
)

var sosCmd = &cobra.Command{
	Use:   "sos [message]",
	Short: "Alert every emergency contact",
	RunE:  runSOS,
}

func runSOS(cmd *cobra.Command, args []string) error {
	var res reminder.SOSResult
	body := map[string]string{"message": strings.Join(args, " ")}
	if err := apiPost("/sos", body, &res); err != nil {
		return err
	}

	if res.Result != nil {
		fmt.Printf("Emergency alert sent to %d contacts via %s\n", res.Result.Notified, res.Result.Alerter)
		if len(res.Result.Skipped) > 0 {
			fmt.Printf("Skipped: %s\n", strings.Join(res.Result.Skipped, ", "))
		}
	}
	return nil
}
