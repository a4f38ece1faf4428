package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cppla/tripjournal/utils"
)

func newHashPasscodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-passcode <passcode>",
		Short: "Print the bcrypt hash of an admin passcode for ADMIN_PASSCODE_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passcode := strings.TrimSpace(args[0])
			if passcode == "" {
				return errors.New("passcode must not be empty")
			}
			hash, err := utils.HashPassword(passcode)
			if err != nil {
				return fmt.Errorf("hash passcode: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
