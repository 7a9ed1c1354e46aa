package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errLintIssues = errors.New("stored pages have issues")

func (a *app) pagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Maintain stored pages",
	}

	var strict bool
	lint := &cobra.Command{
		Use:   "lint",
		Short: "Check every stored page against the component catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gdb, err := a.open()
			if err != nil {
				return err
			}
			reports, err := a.pageService(gdb).LintAll(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			total := 0
			for _, report := range reports {
				for _, issue := range report.Issues {
					fmt.Fprintf(out, "/%s: %s\n", report.Slug, issue)
					total++
				}
			}
			fmt.Fprintf(out, "%d issue(s) in %d page(s)\n", total, len(reports))
			if strict && total > 0 {
				return errLintIssues
			}
			return nil
		},
	}
	lint.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any issue is found")

	setHome := &cobra.Command{
		Use:   "set-homepage <slug>",
		Short: "Make a page the site homepage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := a.open()
			if err != nil {
				return err
			}
			page, err := a.pageService(gdb).SetHomepage(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "homepage is now %q (/%s)\n", page.Title, page.Slug)
			return nil
		},
	}

	cmd.AddCommand(lint, setHome)
	return cmd
}
