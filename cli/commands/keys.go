package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petal-labs/anthropic/cli/keystore"
	"github.com/petal-labs/anthropic/core"
)

func (a *App) newKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
		Long: `Manage API keys stored in the encrypted keystore, one per profile.

The keystore is only consulted when ANTHROPIC_API_KEY is not set.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [profile]",
		Short: "Store the API key for a profile",
		Long:  `Store the API key for a profile (default: the --profile flag or "default"). The key is prompted without echo.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runKeysSet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List profiles with a stored key",
		Long:  `List profiles with a stored key. Key values are never shown.`,
		Args:  cobra.NoArgs,
		RunE:  a.runKeysList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete [profile]",
		Short: "Delete the API key for a profile",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runKeysDelete,
	})
	return cmd
}

func (a *App) profileArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return a.profile
}

func (a *App) runKeysSet(cmd *cobra.Command, args []string) error {
	profile := a.profileArg(args)

	fmt.Fprintf(a.stderr, "Enter API key for profile %s: ", profile)
	key, err := a.readSecret()
	if err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("read key: %w", err))
	}
	if key.IsEmpty() {
		return exitWithCode(ExitValidation, errors.New("API key cannot be empty"))
	}

	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("open keystore: %w", err)
	}
	if err := ks.Set(profile, key); err != nil {
		return fmt.Errorf("store key: %w", err)
	}

	fmt.Fprintf(a.stdout, "API key for %s stored (%s).\n", profile, key.Hint())
	return nil
}

// readSecret reads without echo from a terminal, or one line from piped input.
func (a *App) readSecret() (core.Secret, error) {
	if a.stdinIsTTY() {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return core.Secret{}, err
		}
		return core.NewSecret(string(b)), nil
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return core.Secret{}, err
	}
	return core.NewSecret(strings.TrimSpace(line)), nil
}

func (a *App) runKeysList(cmd *cobra.Command, args []string) error {
	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("open keystore: %w", err)
	}

	names, err := ks.List()
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	if a.jsonOutput {
		return a.writeJSON(map[string]any{"profiles": names})
	}

	if len(names) == 0 {
		fmt.Fprintln(a.stdout, "No API keys stored.")
		return nil
	}
	fmt.Fprintln(a.stdout, "Stored keys:")
	for _, name := range names {
		fmt.Fprintf(a.stdout, "  - %s\n", name)
	}
	return nil
}

func (a *App) runKeysDelete(cmd *cobra.Command, args []string) error {
	profile := a.profileArg(args)

	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("open keystore: %w", err)
	}
	if err := ks.Delete(profile); err != nil {
		if errors.Is(err, keystore.ErrKeyNotFound) {
			return exitWithCode(ExitValidation, fmt.Errorf("no key stored for %s", profile))
		}
		return fmt.Errorf("delete key: %w", err)
	}

	fmt.Fprintf(a.stdout, "API key for %s deleted.\n", profile)
	return nil
}
