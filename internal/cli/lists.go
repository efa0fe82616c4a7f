package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nhle/geotask/internal/model"
)

var listsShowTasks bool

var listsCmd = &cobra.Command{
	Use:     "lists",
	Aliases: []string{"ls"},
	Short:   "Print your lists",
	Long: `Print the signed-in user's lists, their anchors and optionally their tasks.

Examples:
  geotask lists
  geotask lists --tasks`,
	RunE: runLists,
}

func init() {
	listsCmd.Flags().BoolVarP(&listsShowTasks, "tasks", "t", false, "Include tasks")
}

func runLists(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	if err := rt.engine.FetchLists(ctx); err != nil {
		return err
	}

	coll := rt.engine.Collection()
	lists := coll.Lists()
	out := cmd.OutOrStdout()
	if len(lists) == 0 {
		fmt.Fprintln(out, "No lists yet. Create one in the TUI: geotask")
		return nil
	}

	for _, l := range lists {
		printList(out, l)
		if !listsShowTasks {
			continue
		}
		if err := rt.engine.FetchTasks(ctx, l.ID); err != nil {
			return err
		}
		for _, t := range coll.Tasks(l.ID) {
			mark := " "
			if t.Completed {
				mark = "x"
			}
			fmt.Fprintf(out, "    [%s] %s\n", mark, t.Name)
		}
	}
	return nil
}

func printList(w io.Writer, l model.List) {
	if l.Location == nil {
		fmt.Fprintf(w, "%s\n", l.Name)
		return
	}
	fmt.Fprintf(w, "%s  (%.5f, %.5f)\n", l.Name, l.Location.Latitude, l.Location.Longitude)
}
