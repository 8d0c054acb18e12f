package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List, register and delete users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users in registry order",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete every entry registered under a name",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDelete,
}

var usersRegisterCmd = &cobra.Command{
	Use:   "register <name> <image>",
	Short: "Register every face found in an image under a name",
	Long: `Detect every face in the image and store all of their descriptors as one
registry entry. Registering an existing name adds another entry.

Examples:
  facectl users register alice ./alice.jpg`,
	Args: cobra.ExactArgs(2),
	RunE: runUsersRegister,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeleteCmd)
	usersCmd.AddCommand(usersRegisterCmd)
}

func runUsersList(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	entries := e.registry.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No users registered")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFACES")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%d\n", entry.Label, len(entry.Descriptors))
	}
	return w.Flush()
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	removed, err := e.registry.Delete(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", args[0])
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%d entries)\n", args[0], removed)
	return nil
}

func runUsersRegister(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]

	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := newService(cmd.Context(), e)
	if err != nil {
		return err
	}

	result, err := svc.Register(cmd.Context(), name, image)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%d faces)\n", result.User, result.Faces)
	return nil
}
