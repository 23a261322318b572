package main

import (
	"github.com/aretw0/pagebuilder/internal/cli"
	"github.com/spf13/cobra"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		document string
		format   string
	)
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Apply a recorded list of input events to a document",
		Long: `Apply a recorded list of input events to a document.

The script names the document, whether to create it when missing and whether
to save it afterwards, followed by the steps:

  document: home
  create: true
  save: true
  steps:
    - kind: drag_start_palette
      type: Heading
    - kind: drop_canvas
    - kind: edit_begin
      id: 1
    - kind: content_changed
      id: 1
      text: Welcome
    - kind: key_press
      id: 1
      key: Enter`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := cli.LoadScript(args[0])
			if err != nil {
				return err
			}
			if document != "" {
				script.Document = document
			}
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			elements, err := cli.Replay(cmd.Context(), mgr, script)
			if err != nil {
				return err
			}
			a.logger.Info("replay finished", "document_id", script.Document, "steps", len(script.Steps), "saved", script.Save)
			return printElements(cmd, elements, format)
		},
	}
	cmd.Flags().StringVar(&document, "document", "", "Override the script's document id")
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "Output format: markdown, json or yaml")
	return cmd
}
