package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aescanero/dago-template-bridge/internal/worker"
)

func newRenderCmd() *cobra.Command {
	var (
		vars []string
		css  []string
		js   []string
	)

	cmd := &cobra.Command{
		Use:   "render <script> [bridge...]",
		Short: "Render bridges for a script to stdout",
		Long: `Render one or more bridges as the given script would, writing the markup
to stdout. Without bridge names the script's own bridge is rendered
(/users/list.php renders UsersList).

Examples:
  bridge-render render /users/list.php --var title=Users
  bridge-render render /admin/users/edit.php AdminBase AdminUsersEdit --js /edit.js`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variables, err := parseVars(vars)
			if err != nil {
				return err
			}

			a, err := setup("stderr")
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			return a.renderer.Write(cmd.Context(), &worker.RenderRequest{
				Script:    args[0],
				Bridges:   args[1:],
				Variables: variables,
				CSS:       css,
				JS:        js,
			}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringArrayVar(&vars, "var", nil, "Template variable as key=value (repeatable)")
	cmd.Flags().StringSliceVar(&css, "css", nil, "Stylesheet to inject into the first bridge")
	cmd.Flags().StringSliceVar(&js, "js", nil, "Script to inject into the first bridge")
	return cmd
}

// parseVars turns key=value flags into a variable bag
func parseVars(entries []string) (map[string]interface{}, error) {
	variables := make(map[string]interface{}, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", entry)
		}
		variables[strings.TrimSpace(key)] = value
	}
	return variables, nil
}
