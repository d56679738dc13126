package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"leadrelay/internal/formatter"
	"leadrelay/internal/models"
)

func newShopsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shops",
		Short: "Inspect the shop directory",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the directory in match order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(root)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderDirectory(a.dir.Entries()))

			return nil
		},
	})

	cmd.AddCommand(newShopsMatchCmd(root))

	return cmd
}

func newShopsMatchCmd(root *rootOptions) *cobra.Command {
	var brand, text, fallback string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Resolve the shop for a brand and place text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(root)
			if err != nil {
				return err
			}

			rec := models.NewRecord("cli", brand, 0)
			rec.Set("primary", text)
			rec.Set("secondary", fallback)

			attr := a.resolver.Resolve(rec, "primary", "secondary")
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t(%s)\n", attr.Shop, attr.Tier)

			return nil
		},
	}

	cmd.Flags().StringVar(&brand, "brand", "", "Brand code")
	cmd.Flags().StringVar(&text, "text", "", "Primary place text")
	cmd.Flags().StringVar(&fallback, "fallback", "", "Secondary place text")
	_ = cmd.MarkFlagRequired("brand")

	return cmd
}
