package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"wifisurvey/internal/app"
	"wifisurvey/internal/db"
	"wifisurvey/internal/migrate"
	"wifisurvey/internal/modules/survey/repository"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(conn) }()

			applied, err := migrate.Run(conn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", english.Plural(applied, "migration", "migrations"))
			return nil
		},
	}
}

func newClientsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "clients",
		Aliases: []string{"c"},
		Short:   "List clients with their location counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := app.OpenStore(c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(conn) }()

			repo := repository.NewRepository(conn)
			clients, err := repo.ListClients()
			if err != nil {
				return err
			}
			if len(clients) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no clients")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tCONTACT\tLOCATIONS")
			for _, cl := range clients {
				locations, err := repo.ListLocations(cl.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", cl.ID, cl.Name, cl.Address, cl.Contact, humanize.Comma(int64(len(locations))))
			}
			return tw.Flush()
		},
	}
}
