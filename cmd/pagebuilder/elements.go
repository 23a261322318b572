package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/aretw0/pagebuilder/pkg/session"
	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	var content string
	cmd := &cobra.Command{
		Use:   "add <document-id> <type>",
		Short: "Drop a new element from the palette onto the end of the canvas",
		Long:  "Types: " + typeNames() + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseElementType(args[1])
			if err != nil {
				return err
			}
			var placed domain.Element
			_, err = a.mutate(cmd.Context(), args[0], func(ctx context.Context, doc session.Document) error {
				events := []domain.Event{
					{Kind: domain.EventDragStartPalette, Type: t},
					{Kind: domain.EventDropCanvas},
				}
				if err := dispatchAll(ctx, doc, events); err != nil {
					return err
				}
				els := doc.Elements()
				placed = els[len(els)-1]
				if !cmd.Flags().Changed("content") {
					return nil
				}
				if err := dispatchAll(ctx, doc, editEvents(placed.ID, content)); err != nil {
					return err
				}
				placed.Content = content
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s #%d\n", placed.Type, placed.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&content, "content", "c", "", "Initial content instead of the default text")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <document-id> <element-id> <target-id>",
		Short: "Drag an element onto another element",
		Long: `Drag an element onto another element.
The element is removed first and reinserted where the target then sits.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			elements, err := a.mutate(cmd.Context(), args[0], func(ctx context.Context, doc session.Document) error {
				return dispatchAll(ctx, doc, []domain.Event{
					{Kind: domain.EventDragStartElement, ID: ids[0]},
					{Kind: domain.EventDropElement, TargetID: ids[1]},
				})
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatOrder(elements))
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <document-id> <element-id> <line>...",
		Short: "Replace an element's content; each line argument becomes one line",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:2])
			if err != nil {
				return err
			}
			text := strings.Join(args[2:], "\n")
			_, err = a.mutate(cmd.Context(), args[0], func(ctx context.Context, doc session.Document) error {
				return dispatchAll(ctx, doc, editEvents(ids[0], text))
			})
			return err
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id> <element-id>...",
		Short: "Delete elements from a document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			events := make([]domain.Event, len(ids))
			for i, id := range ids {
				events[i] = domain.Event{Kind: domain.EventDelete, ID: id}
			}
			elements, err := a.mutate(cmd.Context(), args[0], func(ctx context.Context, doc session.Document) error {
				return dispatchAll(ctx, doc, events)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatOrder(elements))
			return nil
		},
	}
}

func editEvents(id int, text string) []domain.Event {
	return []domain.Event{
		{Kind: domain.EventEditBegin, ID: id},
		{Kind: domain.EventContentChanged, ID: id, Text: text},
		{Kind: domain.EventEditCommit, ID: id},
	}
}

func dispatchAll(ctx context.Context, doc session.Document, events []domain.Event) error {
	for _, ev := range events {
		if err := doc.Dispatch(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, len(args))
	for i, s := range args {
		id, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid element id %q", s)
		}
		ids[i] = id
	}
	return ids, nil
}

func formatOrder(elements []domain.Element) string {
	if len(elements) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(elements))
	for i, el := range elements {
		parts[i] = fmt.Sprintf("#%d %s", el.ID, el.Type)
	}
	return strings.Join(parts, ", ")
}

func typeNames() string {
	names := make([]string, len(domain.ElementTypes))
	for i, t := range domain.ElementTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
