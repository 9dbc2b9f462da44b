// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/samber/lo"

	"github.com/hashicorp/pii-transform/bundle"
	"github.com/hashicorp/pii-transform/hcl"
	"github.com/hashicorp/pii-transform/policy"
	"github.com/hashicorp/pii-transform/transform"
)

var _ cli.Command = &TransformCommand{}

type TransformCommand struct {
	ui    cli.Ui
	flags *flag.FlagSet

	// HCL file location
	config string

	// defaultPolicy and policyParam override the default policy of the HCL file
	defaultPolicy string
	policyParam   string

	reset string
	seed  *int64
}

func (c *TransformCommand) init() {
	const (
		configUsageText        = "Path to HCL configuration file"
		defaultPolicyUsageText = "Policy for categories without a specific one: passthrough, redact, label, annotate, custom, hash, placeholder or synthetic. Overrides the configuration file."
		policyParamUsageText   = "Parameter of -default-policy: the key for hash, the template for custom, e.g. '<{type}:{start}>'"
		resetUsageText         = "When to forget value consistency: document, chunk or never. Overrides the configuration file."
		seedUsageText          = "Seed for synthetic values, making a run reproducible. Overrides the configuration file."
	)

	// flag.ContinueOnError allows flag.Parse to return an error if one comes up, rather than doing an `os.Exit(2)`
	// on its own.
	c.flags = flag.NewFlagSet("transform", flag.ContinueOnError)

	c.flags.StringVar(&c.config, "config", "", configUsageText)
	c.flags.StringVar(&c.defaultPolicy, "default-policy", "", defaultPolicyUsageText)
	c.flags.StringVar(&c.policyParam, "policy-param", "", policyParamUsageText)
	c.flags.StringVar(&c.reset, "reset", "", resetUsageText)
	c.flags.Func("seed", seedUsageText, func(s string) error {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed '%s'", s)
		}
		c.seed = &v
		return nil
	})

	// When invalid flags are provided, Go will output a usage message of its own. If we direct our flag set to
	// io.Discard, it will effectively be hidden, allowing us to print our own Help message upon failure.
	c.flags.SetOutput(io.Discard)
}

// NewTransformCommand produces a new *command pointer, initialized for use in a CLI application.
func NewTransformCommand(ui cli.Ui) *TransformCommand {
	c := &TransformCommand{ui: ui}
	c.init()
	return c
}

// TransformCommandFactory provides a cli.CommandFactory that will produce an appropriately-initiated *command.
func TransformCommandFactory(ui cli.Ui) cli.CommandFactory {
	return func() (cli.Command, error) {
		return NewTransformCommand(ui), nil
	}
}

// Help provides help text to users who pass in the --help flag or who enter invalid options.
func (c *TransformCommand) Help() string {
	helpText := `Usage: pii-transform transform [options] <infile> <outfile>

Replaces the PII entities listed in <infile> with the text chosen by each category's policy, and writes the resulting document to <outfile>. Input is a YAML or JSON bundle holding the document chunks and their entities; output is written as JSON when <outfile> ends in .json, and as YAML otherwise.
`

	return Usage(helpText, c.flags)
}

// Synopsis provides a brief description of the command, for inclusion in the application's primary --help.
func (c *TransformCommand) Synopsis() string {
	return "Substitute the PII detected in a document"
}

// Run executes the command.
func (c *TransformCommand) Run(args []string) int {
	if err := c.parseFlags(args); err != nil {
		// Output the specific error to help the user understand what went wrong.
		c.ui.Warn(err.Error())
		// Since there was an issue in input, let's show our Help to try and assist the user.
		c.ui.Warn(c.Help())
		return FlagParseError
	}
	in, out := c.flags.Arg(0), c.flags.Arg(1)

	l := configureLogging("pii-transform")

	var h hcl.HCL
	if c.config != "" {
		var err error
		h, err = hcl.Parse(c.config)
		if err != nil {
			l.Error("Failed to load configuration", "config", c.config, "error", err)
			return ConfigError
		}
		l.Debug("HCL config is", "policies", lo.Map(h.Policies, func(p *hcl.Policy, _ int) string {
			return p.Target + "=" + p.Name
		}))
	}

	pcfg, scope, err := c.mergeConfig(h, l)
	if err != nil {
		l.Error("Invalid configuration", "error", err)
		return ConfigError
	}

	d, err := policy.New(pcfg)
	if err != nil {
		l.Error("Failed to build policies", "error", err)
		return ConfigError
	}

	tr, err := transform.New(d, transform.Options{Reset: scope, Logger: l.Named("transform")})
	if err != nil {
		l.Error("Failed to create transformer", "error", err)
		return ConfigError
	}

	b, err := bundle.Load(in)
	if err != nil {
		l.Error("Failed to load input", "infile", in, "error", err)
		return InputError
	}
	l.Info("Transforming document", "infile", in, "chunks", len(b.Chunks), "entities", len(b.Entities), "default", d.Default(), "reset", scope)

	doc, err := tr.Transform(&b.Document, b.Collection())
	if err != nil {
		l.Error("Failed to transform document", "error", err)
		return TransformError
	}

	if err := bundle.Write(out, doc); err != nil {
		l.Error("Failed to write output", "outfile", out, "error", err)
		return OutputError
	}
	l.Info("Document written", "outfile", out)

	buf := new(bytes.Buffer)
	if err := writeSummary(buf, out, tr.Stats()); err != nil {
		l.Warn("failed to generate summary; please review the output file", "error", err)
		return OutputError
	}
	c.ui.Output(strings.TrimRight(buf.String(), "\n"))

	return Success
}

func (c *TransformCommand) parseFlags(args []string) error {
	if err := c.flags.Parse(args); err != nil {
		return err
	}
	if c.flags.NArg() != 2 {
		return fmt.Errorf("expected <infile> and <outfile>, got %d arguments", c.flags.NArg())
	}
	if c.policyParam != "" && c.defaultPolicy == "" {
		return errors.New("-policy-param requires -default-policy")
	}
	return nil
}

// mergeConfig merges flags into the HCL configuration, prioritizing flags.
func (c *TransformCommand) mergeConfig(h hcl.HCL, l hclog.Logger) (policy.Config, transform.ResetScope, error) {
	pcfg, err := h.PolicyConfig(l.Named("policy"))
	if err != nil {
		return policy.Config{}, "", err
	}
	if c.defaultPolicy != "" {
		s, err := policy.FromParam(c.defaultPolicy, c.policyParam)
		if err != nil {
			return policy.Config{}, "", fmt.Errorf("-default-policy: %w", err)
		}
		pcfg.Default = s
	}
	if c.seed != nil {
		pcfg.Synthetic.Seed = c.seed
	}

	scope, err := h.ResetScope()
	if err != nil {
		return policy.Config{}, "", err
	}
	if c.reset != "" {
		scope, err = transform.ParseResetScope(c.reset)
		if err != nil {
			return policy.Config{}, "", fmt.Errorf("-reset: %w", err)
		}
	}
	return pcfg, scope, nil
}

func writeSummary(writer io.Writer, outFile string, stats transform.Stats) error {
	helpText := fmt.Sprintf("The transformation has completed. The document can be found at %s.\n", outFile)
	_, err := writer.Write([]byte(helpText))
	if err != nil {
		return err
	}

	t := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprint(t, formatReportLine("category", "substituted")); err != nil {
		return err
	}
	for _, c := range stats.Categories() {
		if _, err := fmt.Fprint(t, formatReportLine(string(c), strconv.Itoa(stats.ByCategory[c]))); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(t, formatReportLine("total", strconv.Itoa(stats.Substituted))); err != nil {
		return err
	}
	if err := t.Flush(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(writer, "%d entities were left untouched by request.\n", stats.Discarded)
	if err != nil {
		return err
	}
	if stats.Orphaned > 0 {
		_, err = fmt.Fprintf(writer, "%d entities referenced chunks missing from the document and were ignored.\n", stats.Orphaned)
	}
	return err
}

func formatReportLine(cells ...string) string {
	format := ""

	// The coercion from the argument of type []string to type []any is required for the later
	// call to fmt.Sprintf, in which variadic arguments must be of type any.
	values := make([]any, len(cells))
	for i, cell := range cells {
		format += "%s\t"
		values[i] = cell
	}

	format += "\n"

	return fmt.Sprintf(format, values...)
}
