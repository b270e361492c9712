// Package cli provides shared CLI utilities for repliq and repliqd.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// FlagDoc describes one command flag in the machine-readable help output
type FlagDoc struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// CommandDoc describes a command and its subtree in the machine-readable
// help output
type CommandDoc struct {
	Name        string       `json:"name"`
	Use         string       `json:"use,omitempty"`
	Aliases     []string     `json:"aliases,omitempty"`
	Description string       `json:"description,omitempty"`
	Long        string       `json:"long,omitempty"`
	Flags       []FlagDoc    `json:"flags,omitempty"`
	Subcommands []CommandDoc `json:"subcommands,omitempty"`
}

// DescribeCommand walks a cobra command tree into its CommandDoc. Hidden
// commands and the built-in help are left out.
func DescribeCommand(cmd *cobra.Command) CommandDoc {
	doc := CommandDoc{
		Name:        cmd.Name(),
		Use:         cmd.Use,
		Aliases:     cmd.Aliases,
		Description: cmd.Short,
		Long:        cmd.Long,
	}

	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || f.Name == "help-json" {
			return
		}
		doc.Flags = append(doc.Flags, describeFlag(f))
	})

	for _, sub := range cmd.Commands() {
		if sub.Name() == "help" || sub.Hidden {
			continue
		}
		doc.Subcommands = append(doc.Subcommands, DescribeCommand(sub))
	}

	return doc
}

func describeFlag(f *pflag.Flag) FlagDoc {
	doc := FlagDoc{
		Name:        f.Name,
		Shorthand:   f.Shorthand,
		Type:        f.Value.Type(),
		Default:     f.DefValue,
		Description: f.Usage,
	}

	// MarkFlagRequired records itself as a flag annotation
	if _, ok := f.Annotations[cobra.BashCompOneRequiredFlag]; ok {
		doc.Required = true
	}

	return doc
}

// AddHelpJSONFlag registers the --help-json flag on a root command
func AddHelpJSONFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("help-json", false, "Output command schema as JSON")
}

// CheckHelpJSON scans os.Args for --help-json and, when present, prints the
// doc for the addressed subcommand and exits. It runs before cmd.Execute()
// so argument validation cannot swallow the flag.
func CheckHelpJSON(rootCmd *cobra.Command) {
	for i, arg := range os.Args {
		if arg != "--help-json" {
			continue
		}

		doc := DescribeCommand(resolveCommand(rootCmd, os.Args[1:i]))
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		os.Exit(0)
	}
}

// resolveCommand follows the argument path as far as it names subcommands
func resolveCommand(cmd *cobra.Command, args []string) *cobra.Command {
	if len(args) == 0 {
		return cmd
	}

	for _, sub := range cmd.Commands() {
		if sub.Name() == args[0] || sub.HasAlias(args[0]) {
			return resolveCommand(sub, args[1:])
		}
	}

	return cmd
}
