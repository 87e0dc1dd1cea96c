package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/setdecoder/internal/workbook"
	"github.com/spf13/cobra"
)

func newTemplateCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write a blank master workbook with example rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "-" {
				return workbook.WriteTemplate(cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := workbook.WriteTemplate(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.logger.Info("template written", "file", out)
			fmt.Fprintln(cmd.ErrOrStderr(), "wrote", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", workbook.TemplateFileName, `Output file ("-" for stdout)`)
	return cmd
}
