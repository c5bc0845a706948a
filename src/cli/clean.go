package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/sanitizer"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [file...]",
	Short: "Strip colour codes and panel borders from captured output",
	Long: `Read captured terminal output from the given files, or stdin when none
are given, and write it without CSI escape sequences and heavy
box-drawing borders.`,
	Example: `  medimate ask headache | medimate clean`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			return cleanStream(out, cmd.InOrStdin())
		}
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			err = cleanStream(out, f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		return nil
	},
}

func cleanStream(w io.Writer, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, sanitizer.Clean(string(data)))
	return err
}
