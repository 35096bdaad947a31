package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"rtti/internal/image"
)

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack -o <file>",
		Short: "Write the loaded tables as a packed image",
		Args:  cobra.NoArgs,
		RunE:  run(packExecution),
	}
	cmd.Flags().StringP("output", "o", "", "image file to write")
	return cmd
}

func packExecution(s *session, _ []string) error {
	out, err := s.cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if out == "" {
		return errors.New("pack needs -o <file>")
	}
	reg, err := s.registry()
	if err != nil {
		return err
	}
	err = s.timer.Time("save image", func() error {
		return image.Save(s.ctx, out, reg)
	})
	if err != nil {
		return err
	}
	if fi, statErr := os.Stat(out); statErr == nil {
		s.notef("wrote %s (%d constructors, %d bytes)\n", out, reg.Len(), fi.Size())
	}
	return nil
}
