package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/cuadra/internal/auth/password"
	"github.com/spf13/cobra"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print an Argon2id hash for PORTAL_PASSWORD",
	Long: `hash-password encodes the portal password so the plain value does not
have to live in the environment. Without an argument the password is read
from the first line of stdin.`,
	Example: `  cuadractl hash-password 'cordillera'
  echo 'cordillera' | cuadractl hash-password`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashPassword,
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	var secret string
	if len(args) == 1 {
		secret = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		secret = strings.TrimRight(line, "\r\n")
	}
	if strings.TrimSpace(secret) == "" {
		return errors.New("password must not be empty")
	}

	encoded, err := password.Hash(secret)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), encoded)
	return nil
}
