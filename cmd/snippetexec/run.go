package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/snippetexec/exec"
	"github.com/jonwraymond/snippetexec/runtime"
)

var (
	outputFlag  string
	profileFlag string
	timeoutFlag time.Duration
	legacyFlag  bool
)

var runCmd = &cobra.Command{
	Use:   "run <file|->",
	Short: "Execute a snippet file and print its result",
	Long: `Execute a JavaScript snippet and print the result envelope.

Examples:
  snippetexec run report.js
  echo 'output = 42' | snippetexec run - --output yaml
  snippetexec run report.js --profile hardened --timeout 2s`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", "json", "Output format (json, yaml)")
	runCmd.Flags().StringVar(&profileFlag, "profile", "", "Security profile (dev, standard, hardened)")
	runCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Execution budget (overrides config)")
	runCmd.Flags().BoolVar(&legacyFlag, "legacy", false, "Print the bare value instead of the envelope")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if outputFlag != "json" && outputFlag != "yaml" {
		return fmt.Errorf("unknown output format %q", outputFlag)
	}
	src, err := readSource(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	engine, err := cfg.NewEngine(ctx, cfg.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer engine.Close()

	var out any
	if legacyFlag {
		out = engine.ExecuteLegacy(ctx, src)
	} else {
		res, err := execute(ctx, engine.Exec, src)
		if err != nil {
			return err
		}
		out = res
	}
	return render(cmd.OutOrStdout(), outputFlag, out)
}

func execute(ctx context.Context, engine *exec.Exec, src string) (exec.Result, error) {
	params := exec.Params{Code: src, Timeout: timeoutFlag}
	if profileFlag != "" {
		p := runtime.SecurityProfile(profileFlag)
		if !p.IsValid() {
			return exec.Result{}, fmt.Errorf("unknown profile %q", profileFlag)
		}
		params.Profile = p
	}
	return engine.ExecuteParams(ctx, params)
}

func readSource(stdin io.Reader, name string) (string, error) {
	var (
		b   []byte
		err error
	)
	if name == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("reading snippet: %w", err)
	}
	return string(b), nil
}

// render writes v as indented JSON or block-style YAML. YAML goes through
// the JSON encoding so mapping order and field names match.
func render(w io.Writer, format string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if format == "json" {
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return fmt.Errorf("converting result: %w", err)
	}
	blockStyle(&node)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}
