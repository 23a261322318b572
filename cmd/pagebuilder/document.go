package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/pagebuilder/internal/presentation/tui"
	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/aretw0/pagebuilder/pkg/snapshot"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newDocCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Manage stored documents",
	}
	cmd.AddCommand(newDocNewCmd(a), newDocLsCmd(a), newDocShowCmd(a), newDocRmCmd(a))
	return cmd
}

func newDocNewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new [document-id]",
		Short: "Create an empty document (a random id is generated when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := uuid.NewString()
			if len(args) == 1 {
				id = args[0]
			}
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			if err := mgr.Create(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newDocLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			ids, err := mgr.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No documents found.")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
}

func newDocShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <document-id>",
		Short: "Print a document as markdown, json or yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			elements, err := mgr.Elements(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printElements(cmd, elements, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "Output format: markdown, json or yaml")
	return cmd
}

func newDocRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <document-id>...",
		Short: "Remove one or more documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			var errs []error
			for _, id := range args {
				if err := mgr.Delete(cmd.Context(), id); err != nil {
					errs = append(errs, fmt.Errorf("failed to remove %q: %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed document '%s'\n", id)
			}
			return errors.Join(errs...)
		},
	}
}

func printElements(cmd *cobra.Command, elements []domain.Element, format string) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "markdown", "md":
		return tui.Preview(out, elements)
	case "json":
		raw, err := snapshot.NewJSONCodec(snapshot.WithIndent("  ")).Encode(elements)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, raw)
	case "yaml":
		raw, err := snapshot.NewYAMLCodec().Encode(elements)
		if err != nil {
			return err
		}
		fmt.Fprint(out, raw)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}
