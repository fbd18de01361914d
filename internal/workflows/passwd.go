package workflows

import (
	"context"
	"fmt"
)

// Passwd re-encrypts the store under a new password. A daemon serving the
// store is stopped first because it would keep saving with the old one.
func Passwd(ctx context.Context, s *Session) error {
	if err := s.StopDaemon(ctx); err != nil {
		return err
	}
	password, err := s.env.Prompter.NewPassword("New password")
	if err != nil {
		return err
	}

	s.FS.Touch()
	err = s.env.Store.Save(ctx, s.FS, password)
	s.journal("passwd", err)
	if err != nil {
		clear(password)
		return fmt.Errorf("saving store: %w", err)
	}
	clear(s.password)
	s.password = password
	return nil
}
