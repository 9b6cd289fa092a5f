package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sierra-flows/ifrsim/ifr"
)

// dowyCmd prints the day of water year for one or more dates
var dowyCmd = &cobra.Command{
	Use:   "dowy DATE...",
	Short: "Print the day of water year and water year for dates (YYYY-MM-DD)",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeDaysOfWaterYear(cmd.OutOrStdout(), args); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func writeDaysOfWaterYear(w io.Writer, dates []string) error {
	for _, s := range dates {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", s, err)
		}
		fmt.Fprintf(w, "%s dowy=%d water_year=%d\n", s, ifr.DayOfWaterYear(t), ifr.WaterYear(t))
	}
	return nil
}
