package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/puzzlecrawl/internal/identity"
	"github.com/nao1215/puzzlecrawl/internal/model"
	"github.com/nao1215/puzzlecrawl/internal/registry"
)

// ErrNoCredential is returned when no session cookie was supplied.
var ErrNoCredential = errors.New("no session cookie given: pass it as an argument or on stdin")

// NewSessionCmd creates the session command group.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage registered sessions",
	}
	cmd.AddCommand(newSessionAddCmd())
	cmd.AddCommand(newSessionListCmd())
	return cmd
}

func newSessionAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [cookie|-]",
		Short: "Register a session cookie",
		Long: `Add resolves the identity a session cookie belongs to and stores the cookie
in the session registry under that identity.

The cookie is read from stdin when the argument is omitted or "-", which
keeps it out of the shell history. A leading "session=" is accepted.

Examples:
  # Register the first session; it becomes the primary one
  puzzlecrawl session add < cookie.txt

  # Register another session and make it primary
  puzzlecrawl session add --primary -`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSessionAddCmd,
	}
	addRemoteFlags(cmd)
	cmd.Flags().Bool("primary", false, "Make this session the primary one")
	return cmd
}

func runSessionAddCmd(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	primary, err := cmd.Flags().GetBool("primary")
	if err != nil {
		return err
	}

	credential, err := readCredential(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	env, err := openCrawlEnv(cfg, logger)
	if err != nil {
		return err
	}
	defer env.Close() //nolint:errcheck // nothing to report after registration

	id, err := identity.NewResolver(identity.WithLogger(logger)).Resolve(ctx, credential, env.fetcher(credential))
	if err != nil {
		return fmt.Errorf("failed to resolve identity: %w", err)
	}

	reg, err := registry.LoadOrEmpty(cfg.RegistryPath)
	if err != nil {
		return err
	}
	if err := reg.Add(id, credential, primary); err != nil {
		return err
	}
	if err := reg.Save(cfg.RegistryPath); err != nil {
		return err
	}

	current, _ := reg.Primary()
	marker := ""
	if current == id {
		marker = " (primary)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered identity %s%s\n", id, marker)
	logger.Info("registered session", "identity", id, "registry", cfg.RegistryPath)
	return nil
}

// readCredential takes the cookie from args, or the first line of in.
func readCredential(in io.Reader, args []string) (model.Credential, error) {
	raw := ""
	if len(args) == 1 && args[0] != "-" {
		raw = args[0]
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read cookie: %w", err)
		}
		raw = line
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "session=")
	if raw == "" {
		return "", ErrNoCredential
	}
	return model.Credential(raw), nil
}

func newSessionListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered identities",
		Long:  `List prints every registered identity. The primary one is marked with "*". Cookies are never printed.`,
		Args:  cobra.NoArgs,
		RunE:  runSessionListCmd,
	}
	cmd.Flags().String("registry", "", "Session registry file")
	return cmd
}

func runSessionListCmd(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return err
	}

	primary, _ := reg.Primary()
	out := cmd.OutOrStdout()
	for _, id := range reg.Identities() {
		marker := " "
		if id == primary {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, id)
	}
	return nil
}
