package cmd

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/utils"
)

// confirm asks a yes/no question, defaulting to no. Without a terminal it
// refuses, so scripts must pass the flag that skips the question.
func confirm(label string) (bool, error) {
	if !utils.IsTerminal() {
		return false, fmt.Errorf("%w: cannot ask for confirmation without a terminal", kerrors.ErrUsage)
	}
	result, err := (&promptui.Prompt{
		Label:     label + " [y/N]",
		IsConfirm: true,
	}).Run()
	if err != nil {
		if err == promptui.ErrAbort || result == "" {
			return false, nil
		}
		if err == promptui.ErrInterrupt {
			return false, fmt.Errorf("%w: aborted", kerrors.ErrUsage)
		}
		return false, err
	}
	result = strings.ToLower(result)
	return result == "y" || result == "yes", nil
}
