package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/evaluation"
)

var (
	evalSuite       string
	evalProfile     string
	evalJSON        bool
	evalVerbose     bool
	evalMinAccuracy float64
	evalParallel    int
)

var evaluateCmd = &cobra.Command{
	Use:     "evaluate",
	Aliases: []string{"eval"},
	Short:   "Measure keyword accuracy over a test suite",
	Long: `Run every case of a suite through the assistant, clean each answer and
check that it contains the expected keywords. Prints per-case verdicts and
the overall accuracy.

--suite takes a built-in suite name or a path to a YAML suite file.`,
	Example: `  medimate evaluate --verbose
  medimate evaluate --suite ./cases.yaml --json --min-accuracy 80`,
	RunE: func(cmd *cobra.Command, args []string) error {
		suite, err := resolveSuite(evalSuite)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		log := newLogger()
		a, err := startApp(ctx, log)
		if err != nil {
			return err
		}
		defer a.Close()

		profile := evalProfile
		if profile == "" {
			profile = suite.Profile
		}
		asst, err := a.Assistant(profile)
		if err != nil {
			return err
		}

		parallel := evalParallel
		if parallel <= 0 {
			parallel = a.Config().Evaluation.Parallelism
		}
		report, err := evaluation.NewRunner(a.Invoker(asst), log, evaluation.WithParallelism(parallel)).Run(ctx, suite)
		if err != nil {
			return fmt.Errorf("evaluation interrupted: %w", err)
		}

		out := cmd.OutOrStdout()
		if evalJSON {
			err = report.WriteJSON(out)
		} else {
			err = report.WriteText(out, evalVerbose)
		}
		if err != nil {
			return err
		}

		if report.Accuracy() < evalMinAccuracy {
			return fmt.Errorf("accuracy %.2f%% is below the required %.2f%%", report.Accuracy(), evalMinAccuracy)
		}
		return nil
	},
}

// resolveSuite loads name as a file when one exists at that path, and as
// a built-in suite otherwise.
func resolveSuite(name string) (evaluation.Suite, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return evaluation.LoadSuite(name)
	}
	return evaluation.BuiltinSuite(name)
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalSuite, "suite", "s", evaluation.DefaultSuiteName, "built-in suite name or path to a YAML suite")
	evaluateCmd.Flags().StringVarP(&evalProfile, "profile", "p", "", "instruction profile (default: the suite's, then config)")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "write the report as JSON")
	evaluateCmd.Flags().BoolVarP(&evalVerbose, "verbose", "v", false, "include each cleaned response in the report")
	evaluateCmd.Flags().Float64Var(&evalMinAccuracy, "min-accuracy", 0, "fail when accuracy (percent) is below this")
	evaluateCmd.Flags().IntVar(&evalParallel, "parallel", 0, "cases to run concurrently (default from config)")
}
