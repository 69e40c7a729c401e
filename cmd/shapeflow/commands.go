package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/BaSui01/shapeflow/catalog"
	"github.com/BaSui01/shapeflow/flagged"
	"github.com/BaSui01/shapeflow/schemaexport"
	"github.com/BaSui01/shapeflow/streaming"
	"github.com/BaSui01/shapeflow/unify"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// =============================================================================
// ✅ validate 命令
// =============================================================================

func newValidateCmd(a *app) *cobra.Command {
	var (
		typeExpr string
		partial  bool
		dump     bool
		explain  bool
	)

	cmd := &cobra.Command{
		Use:   "validate <value.yaml|->",
		Short: "Validate a flagged value against a declared type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadCatalog()
			if err != nil {
				return err
			}
			t, err := reg.ParseType(typeExpr)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			value, err := flagged.DecodeYAML(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if explain {
				fmt.Fprintf(out, "score: %d\n", flagged.Score(value))
				for _, e := range flagged.Explanation(value) {
					fmt.Fprintln(out, e.Error())
				}
			}

			res, err := a.validator(reg).Validate(value, t, a.allowPartials(cmd, partial))
			if err != nil {
				return err
			}
			if dump {
				dumpConfig.Fdump(out, res)
				return nil
			}
			return writeJSON(out, streaming.Annotate(res))
		},
	}

	cmd.Flags().StringVarP(&typeExpr, "type", "t", "", `Declared type expression, e.g. Person or "string[]"`)
	cmd.Flags().BoolVar(&partial, "partial", false, "Treat the value as a mid-stream snapshot")
	cmd.Flags().BoolVar(&dump, "dump", false, "Dump the annotated tree instead of printing JSON")
	cmd.Flags().BoolVar(&explain, "explain", false, "Print the parse score and explanations first")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

// =============================================================================
// 🔁 replay 命令
// =============================================================================

func newReplayCmd(a *app) *cobra.Command {
	var (
		typeExpr string
		jobs     int
	)

	cmd := &cobra.Command{
		Use:   "replay <stream.yaml>...",
		Short: "Validate every snapshot of one or more recorded streams",
		Long: "Each file is a multi-document YAML stream holding successive snapshots of one\n" +
			"response. All snapshots but the last are validated with partials allowed.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadCatalog()
			if err != nil {
				return err
			}
			t, err := reg.ParseType(typeExpr)
			if err != nil {
				return err
			}
			v := a.validator(reg)

			results := make([][]streaming.ChunkResult, len(args))
			var g errgroup.Group
			g.SetLimit(max(jobs, 1))
			for i, path := range args {
				g.Go(func() error {
					data, err := readInput(cmd, path)
					if err != nil {
						return err
					}
					snapshots, err := flagged.DecodeYAMLStream(bytes.NewReader(data))
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					if len(snapshots) == 0 {
						return fmt.Errorf("%s: no snapshots", path)
					}
					results[i] = v.Replay(snapshots, t)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var failed []string
			for i, path := range args {
				if len(args) > 1 {
					fmt.Fprintf(out, "== %s\n", path)
				}
				for _, c := range results[i] {
					printChunk(out, c)
				}
				if last := results[i][len(results[i])-1]; last.Err != nil {
					failed = append(failed, path)
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("final snapshot failed: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeExpr, "type", "t", "", "Declared type expression")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "Streams replayed concurrently")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func printChunk(w io.Writer, c streaming.ChunkResult) {
	label := fmt.Sprintf("chunk %d", c.Index)
	if c.Final {
		label += " (final)"
	}
	if c.Err != nil {
		fmt.Fprintf(w, "%s: error: %v\n", label, c.Err)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", label, c.Summary)
}

// =============================================================================
// 🔍 subtype 命令
// =============================================================================

func newSubtypeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "subtype <base> <other>",
		Short: "Report whether every value of base is also a value of other",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadCatalog()
			if err != nil {
				return err
			}
			base, err := reg.ParseType(args[0])
			if err != nil {
				return err
			}
			other, err := reg.ParseType(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), unify.New(reg).IsSubtype(base, other))
			return nil
		},
	}
}

// =============================================================================
// 📐 schema 命令
// =============================================================================

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [type]",
		Short: "Export a type, or the whole catalog, as JSON Schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadCatalog()
			if err != nil {
				return err
			}
			exp := schemaexport.New(reg)

			var s any
			if len(args) == 1 {
				t, err := reg.ParseType(args[0])
				if err != nil {
					return err
				}
				if s, err = exp.Schema(t); err != nil {
					return err
				}
			} else {
				if s, err = exp.Definitions(reg.Classes(), reg.Enums()); err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), s)
		},
	}
}

// =============================================================================
// 📚 catalog 命令
// =============================================================================

type catalogSummary struct {
	Classes          []classSummary `yaml:"classes,omitempty"`
	Enums            []enumSummary  `yaml:"enums,omitempty"`
	Aliases          []aliasSummary `yaml:"aliases,omitempty"`
	StructuralCycles [][]string     `yaml:"structural_cycles,omitempty"`
	FiniteCycles     [][]string     `yaml:"finite_cycles,omitempty"`
}

type classSummary struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields"`
	Needed []string `yaml:"needed,omitempty"`
}

type enumSummary struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

type aliasSummary struct {
	Name      string `yaml:"name"`
	Target    string `yaml:"target"`
	Recursive bool   `yaml:"recursive,omitempty"`
}

func summarizeCatalog(reg *catalog.Registry) catalogSummary {
	var s catalogSummary
	for _, c := range reg.Classes() {
		fields := make([]string, len(c.Fields))
		for i, f := range c.Fields {
			fields[i] = f.Name + ": " + f.Type.String()
		}
		s.Classes = append(s.Classes, classSummary{Name: c.Name, Fields: fields, Needed: c.NeededFields()})
	}
	for _, e := range reg.Enums() {
		values := make([]string, len(e.Values))
		for i, v := range e.Values {
			values[i] = v.Name
		}
		s.Enums = append(s.Enums, enumSummary{Name: e.Name, Values: values})
	}
	for _, al := range reg.Aliases() {
		s.Aliases = append(s.Aliases, aliasSummary{Name: al.Name, Target: al.Target.String(), Recursive: al.Recursive})
	}
	for _, cycle := range reg.StructuralCycles() {
		names := make([]string, 0, len(cycle))
		for name := range cycle {
			names = append(names, name)
		}
		sort.Strings(names)
		s.StructuralCycles = append(s.StructuralCycles, names)
	}
	s.FiniteCycles = reg.FiniteCycles()
	return s
}

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Load the catalog and print its declarations and recursion tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadCatalog()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(summarizeCatalog(reg)); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

// =============================================================================
// 👀 watch 命令
// =============================================================================

func newWatchCmd(a *app) *cobra.Command {
	var (
		typeExpr string
		partial  bool
	)

	cmd := &cobra.Command{
		Use:   "watch <value.yaml>",
		Short: "Revalidate a value every time the catalog file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Catalog.Watch = true
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			value, err := flagged.DecodeYAML(data)
			if err != nil {
				return err
			}

			w, err := catalog.NewWatcher(a.cfg.Catalog.Path,
				catalog.WithDebounceDelay(a.cfg.Catalog.DebounceDelay),
				catalog.WithWatcherLogger(a.logger))
			if err != nil {
				return err
			}

			allow := a.allowPartials(cmd, partial)
			out := cmd.OutOrStdout()
			var mu sync.Mutex
			check := func(reg *catalog.Registry) {
				mu.Lock()
				defer mu.Unlock()
				t, err := reg.ParseType(typeExpr)
				if err != nil {
					fmt.Fprintf(out, "type: %v\n", err)
					return
				}
				res, err := a.validator(reg).Validate(value, t, allow)
				if err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					return
				}
				fmt.Fprintln(out, streaming.Summarize(res))
			}

			w.OnReload(func(reg *catalog.Registry, err error) {
				if a.collector != nil {
					a.collector.RecordCatalogReload(err)
				}
				if err != nil {
					mu.Lock()
					fmt.Fprintf(out, "reload failed: %v\n", err)
					mu.Unlock()
					return
				}
				check(reg)
			})
			check(w.Current())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := w.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()

			a.logger.Info("Watch stopped", zap.String("path", a.cfg.Catalog.Path))
			return w.Stop()
		},
	}

	cmd.Flags().StringVarP(&typeExpr, "type", "t", "", "Declared type expression")
	cmd.Flags().BoolVar(&partial, "partial", false, "Treat the value as a mid-stream snapshot")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
