// Package main implements the ruleforge CLI: a thin wrapper around
// pkg/engine for evaluating a named built-in rule set against a
// fixture of ground triples.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gitrdm/ruleforge/internal/memgraph"
	"github.com/gitrdm/ruleforge/pkg/engine"
)

var (
	exampleName   string
	factsPath     string
	maxIterations int
	verbose       bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ruleforge",
		Short: "Evaluate stratified rule sets over an RDF-like triple graph",
	}
	root.PersistentFlags().StringVar(&exampleName, "example", "ancestor", "built-in rule set to evaluate (ancestor, non-manager)")
	root.PersistentFlags().StringVar(&factsPath, "facts", "", "path to a line-fixture file of additional facts")
	root.PersistentFlags().IntVar(&maxIterations, "max-iterations", 0, "per-stratum iteration cap (0 = engine default)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log iteration-cap and cancellation diagnostics")

	root.AddCommand(newRunCmd(), newStrataCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Evaluate the rule set to fixpoint and print the derived triples",
		RunE:  runRun,
	}
}

func newStrataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strata",
		Short: "Print the stratum assignment for the rule set without evaluating it",
		RunE:  runStrata,
	}
}

func buildEngine() (*engine.Engine, error) {
	rs, ok := exampleRuleSets[exampleName]
	if !ok {
		return nil, fmt.Errorf("unknown example %q", exampleName)
	}
	var opts []engine.Option
	if maxIterations > 0 {
		opts = append(opts, engine.WithMaxIterations(maxIterations))
	}
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		opts = append(opts, engine.WithLogger(logger.Sugar()))
	}
	return engine.New(rs, opts...)
}

func runStrata(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	for i, stratum := range eng.Strata() {
		fmt.Fprintf(cmd.OutOrStdout(), "stratum %d: rules %v\n", i, stratum)
	}
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}

	var facts []engine.Triple
	if factsPath != "" {
		facts, err = loadFixture(factsPath)
		if err != nil {
			return err
		}
	}
	store := memgraph.FromTriples(facts)

	result, err := eng.Evaluate(context.Background(), store, engine.EvalOptions{ResultsOnly: true})
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), w.String())
	}
	for _, t := range result.Graph.Match(nil, nil, nil) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", t.Subject, t.Predicate, t.Object)
	}
	return nil
}
