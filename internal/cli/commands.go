package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"todo-svc/internal/collector"
	"todo-svc/internal/result"
	"todo-svc/internal/server"
	"todo-svc/internal/todo"
)

func newServeCmd(a *app) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP collection service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed && len(a.mgr.List(cmd.Context(), todo.Filter{})) == 0 {
				if _, err := collector.NewSampleCollector().Collect(cmd.Context(), a.mgr); err != nil {
					return err
				}
			}
			ex, err := result.NewExporter(a.mgr, a.cfg.Export.CacheTTL, a.bus)
			if err != nil {
				return err
			}
			srv := server.New(a.mgr, ex,
				server.WithLogger(a.log),
				server.WithStaticDir(a.cfg.Server.StaticDir))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, a.cfg.Server.Addr)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :5000)")
	cmd.Flags().String("static-dir", "", "serve a built client from this directory")
	cmd.Flags().BoolVar(&seed, "seed", false, "add example tasks when the list is empty")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "import SOURCE",
		Short: "Import tasks from a json/yaml/csv file, a todo-svc URL, or \"sample\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c collector.Collector
			switch src := args[0]; {
			case src == "sample":
				c = collector.NewSampleCollector()
			case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
				rc := collector.NewRemoteCollector(src)
				rc.Category = category
				c = rc
			default:
				c = collector.NewFileCollector(src)
			}
			n, err := c.Collect(cmd.Context(), a.mgr)
			fmt.Fprintf(cmd.OutOrStdout(), "%d imported\n", n)
			return err
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "with a URL, only tasks in this category")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var description, category string
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.mgr.Create(cmd.Context(), args[0], description, category)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description (required)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "task category")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var category, status string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := todo.ParseStatus(status)
			if err != nil {
				return err
			}
			tasks := a.mgr.List(cmd.Context(), todo.Filter{Category: category, Status: st})
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), tasks)
			}
			printTasks(cmd.OutOrStdout(), tasks)
			fmt.Fprintf(cmd.OutOrStdout(), "%d remaining\n", a.mgr.Remaining(cmd.Context()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only tasks in this category")
	cmd.Flags().StringVarP(&status, "status", "s", "all", "all, completed or incomplete")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip a task between done and not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.mgr.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), []todo.Task{t})
			return nil
		},
	}
}

func newCategoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "category ID CATEGORY",
		Short: `Move a task to another category ("no category" clears it)`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.mgr.Recategorize(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), []todo.Task{t})
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "task deleted")
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var category string
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete completed tasks, optionally only in one category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var n int
			var err error
			switch {
			case all && category == "":
				return fmt.Errorf("--all needs --category")
			case all:
				n, err = a.mgr.DeleteCategory(ctx, category)
			case category != "":
				n, err = a.mgr.DeleteCompletedInCategory(ctx, category)
			default:
				n, err = a.mgr.DeleteCompleted(ctx)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d deleted\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().BoolVar(&all, "all", false, "with --category, delete unfinished tasks too")
	return cmd
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range a.mgr.Categories(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var format, out, category, status string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as json, csv, yaml or pdf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := todo.ParseStatus(status)
			if err != nil {
				return err
			}
			ex, err := result.NewExporter(a.mgr, a.cfg.Export.CacheTTL, nil)
			if err != nil {
				return err
			}
			b, err := ex.Export(cmd.Context(), format, todo.Filter{Category: category, Status: st})
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported -> %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, csv, yaml or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only tasks in this category")
	cmd.Flags().StringVarP(&status, "status", "s", "all", "all, completed or incomplete")
	return cmd
}

func printTasks(w io.Writer, tasks []todo.Task) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tCATEGORY\tTITLE")
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		category := t.Category
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, done, category, t.Title)
	}
	tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
