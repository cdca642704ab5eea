package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func reaccessCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "reaccess",
		Aliases: []string{"send-reaccess"},
		Short:   "Email every buyer a link back to their library",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()
			rep, err := application.ReaccessUC.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "buyers: %d, sent: %d, failed: %d\n", rep.Buyers, rep.Sent, rep.Failed)
			return nil
		},
	}
}
