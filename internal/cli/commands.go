// Package cli implements featurectl, the command line tool for feature flags.
package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iquiquesec/ciberseguridad/internal/features"
	"github.com/iquiquesec/ciberseguridad/internal/service"
)

type rootOptions struct {
	file   string
	server string
	token  string
}

// client picks the remote client when --server is given and the flag file otherwise.
func (o *rootOptions) client() (FlagClient, error) {
	if o.server != "" {
		return NewHTTPClient(o.server, o.token), nil
	}
	store, err := features.NewStore(o.file)
	if err != nil {
		return nil, err
	}
	return NewFileClient(store), nil
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "featurectl",
		Short:         "inspect and toggle platform feature flags",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.file, "file", "data/features.json", "feature flag file")
	root.PersistentFlags().StringVar(&opts.server, "server", "", "server base url, overrides --file")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "admin bearer token for --server")

	root.AddCommand(newListCommand(opts), newSetCommand(opts), newTokenCommand())
	return root
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "show every feature flag and its state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			set, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			return printFlags(cmd.OutOrStdout(), set)
		},
	}
}

func newSetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <true|false>",
		Short: "switch a feature flag on or off",
		Example: `  disable cloud security:
  $ featurectl set cloud_security false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, ok := features.ParseEnabled(args[1])
			if !ok {
				return fmt.Errorf("invalid value %q, expected true or false", args[1])
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			if err := client.Set(cmd.Context(), args[0], enabled); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s enabled=%t\n", args[0], enabled)
			return err
		},
	}
}

func newTokenCommand() *cobra.Command {
	var secret, subject, refresh string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "issue an admin token signed with the server jwt secret",
		Example: `  renew a token before it expires:
  $ featurectl token --secret "$JWT_SECRET" --refresh "$TOKEN"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auth := service.NewAuthService(secret)
			var (
				token string
				err   error
			)
			if refresh != "" {
				token, err = auth.RefreshToken(refresh)
			} else {
				token, err = auth.GenerateToken(subject)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "jwt secret configured on the server")
	cmd.Flags().StringVar(&subject, "subject", "featurectl", "token subject")
	cmd.Flags().StringVar(&refresh, "refresh", "", "existing admin token to renew, keeping its subject")
	_ = cmd.MarkFlagRequired("secret")
	return cmd
}

func printFlags(out io.Writer, set features.Set) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tENABLED")
	for _, key := range set.Keys() {
		f := set[key]
		fmt.Fprintf(w, "%s\t%s\t%t\n", key, f.Name, f.Enabled)
	}
	return w.Flush()
}
