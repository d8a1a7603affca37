// Package cmd implements iepctl, the operator CLI that drives iepforge's
// HTTP ingress operations (§B), grounded on the teacher's
// internal/echoctl/cmd.NewDefaultEchoCtlCommand (root cobra.Command +
// persistent flags + subcommand groups).
package cmd

import (
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/brightpath-edu/iepforge/internal/iepctl/client"
)

// globalOptions holds the persistent flags every subcommand reads to
// build its *client.Client.
type globalOptions struct {
	server string
	token  string
}

// NewDefaultIepctlCommand creates the `iepctl` command with the process's
// real stdio streams.
func NewDefaultIepctlCommand() *cobra.Command {
	return NewIepctlCommand(os.Stdin, os.Stdout, os.Stderr)
}

// NewIepctlCommand builds the root command, wiring every subcommand group
// under it.
func NewIepctlCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "iepctl",
		Short: "iepctl drives the iepforge assessment-to-IEP pipeline",
		Long: heredoc.Doc(`
			iepctl is the operator CLI for iepforge.

			It uploads assessment documents, triggers extraction and draft
			generation, lists and approves IEPs, manages the template catalog,
			and inspects GenerationTrace rows for one correlation_id — every
			operation iepforge's HTTP ingress exposes except the administrative
			assessment reset.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.server, "server", "http://localhost:8080", "iepforge ingress base URL.")
	flags.StringVar(&opts.token, "token", os.Getenv("IEPCTL_TOKEN"), "Bearer token (defaults to $IEPCTL_TOKEN).")

	newClient := func() *client.Client { return client.New(opts.server, opts.token) }

	root.AddCommand(
		newAssessmentsCommand(newClient),
		newIEPsCommand(newClient),
		newTemplatesCommand(newClient),
		newTracesCommand(newClient),
		newStudentsCommand(newClient),
	)
	return root
}
