package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/utils"
	"github.com/PolarWolf314/cask/internal/workflows"
)

var (
	writeGenerate bool
	writeSpec     string
)

func init() {
	for _, c := range []*cobra.Command{createCmd, editCmd} {
		c.Flags().BoolVarP(&writeGenerate, "generate", "g", false, "generate a random value instead of reading one")
		c.Flags().StringVarP(&writeSpec, "spec", "s", "", "password spec for -g such as 20:u=1:d=2 (default from config)")
		RootCmd.AddCommand(c)
	}
}

const writeHelp = `

The data is read from the first line of stdin when it is piped, and
otherwise typed at a hidden prompt. With -g it is generated instead, from
--spec or the password_spec setting. A spec is LENGTH followed by optional
minimums for upper case (u), lower case (l), digits (d) and punctuation (p).`

var createCmd = &cobra.Command{
	Use:   "create PATH",
	Short: "Create a file holding a secret",
	Long: "Creates a new file." + writeHelp + `

Examples:
  cask create web/login            # prompt for the value
  echo s3cret | cask create web/login
  cask create web/login -g         # generate with the configured spec
  cask create bank/pin -g -s 6:d=6`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWrite(cmd, args[0], workflows.Create)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit PATH",
	Short: "Replace the secret in a file",
	Long: "Replaces the data of an existing file, following symlinks." + writeHelp + `

Examples:
  cask edit web/login
  cask edit web/login -g -s 32`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWrite(cmd, args[0], workflows.Edit)
	},
}

type writeFunc func(context.Context, *workflows.Session, workflows.WriteOptions) (*workflows.WriteResult, error)

func runWrite(cmd *cobra.Command, path string, write writeFunc) error {
	if writeSpec != "" && !writeGenerate {
		return fmt.Errorf("%w: --spec needs -g", kerrors.ErrUsage)
	}
	var generate string
	if writeGenerate {
		generate = writeSpec
		if generate == "" {
			generate = config.PasswordSpec
		}
	}
	opts := workflows.WriteOptions{Path: path, Generate: generate}
	if err := workflows.ValidateGenerate(generate); err != nil {
		return err
	}

	// Read the value before opening the store so the password prompt and
	// the value prompt do not interleave.
	if generate == "" {
		data, err := readValue()
		if err != nil {
			return err
		}
		opts.Data = data
	}

	return withSession(cmd, func(ctx context.Context, s *workflows.Session) error {
		result, err := write(ctx, s, opts)
		if err != nil {
			return err
		}
		Logger.Infof("Wrote %s", ui.Path.Sprint(result.Path))
		return nil
	})
}

// readValue reads a secret from piped stdin or a hidden prompt. Inside the
// shell stdin carries commands, so only the prompt is used there.
func readValue() (string, error) {
	if shellSession == nil && utils.StdinIsPiped() {
		return utils.ReadLine(os.Stdin)
	}
	if !utils.IsTTYAvailable() {
		return "", fmt.Errorf("%w: no terminal to read the value from; pipe it in or use -g", kerrors.ErrUsage)
	}
	data, err := utils.ReadPassphraseFromTTY("Value: ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
