package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// maxLogSize is the size past which the session log starts over.
const maxLogSize = 5 << 20

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the session log",
	Long: `Print the tail of the session log, ~/.yesand/logs/yesand.log
unless --log names another file.

Examples:
  yesand logs             # last 50 lines
  yesand logs -n 200 -f   # last 200 lines, then follow`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func runLogs(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("lines")
	follow, _ := cmd.Flags().GetBool("follow")

	path := logPath
	if path == "" {
		p, err := defaultLogPath()
		if err != nil {
			return err
		}
		path = p
	}
	return tailLogFile(cmd.Context(), cmd.OutOrStdout(), path, n, follow)
}

// tailLogFile prints the last n lines from path, optionally following for
// new content until ctx is done.
func tailLogFile(ctx context.Context, w io.Writer, path string, n int, follow bool) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("log file not found: %s", path)
		}
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	lines, err := readLastLines(f, n)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprint(w, line)
	}

	if !follow {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	buf := make([]byte, 4096)
	for {
		nr, err := f.Read(buf)
		if nr > 0 {
			w.Write(buf[:nr])
		}
		if err != nil && err != io.EOF {
			return err
		}
		if nr == 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(200 * time.Millisecond):
			}
		}
	}
}

// readLastLines reads the last n lines from a file, each with its trailing
// newline, and leaves the offset at the end of the file.
func readLastLines(f *os.File, n int) ([]string, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 || n <= 0 {
		_, err := f.Seek(0, io.SeekEnd)
		return nil, err
	}

	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, err
	}

	var lines []string
	start := 0
	for i := 0; i < len(buf); i++ {
		if buf[i] == '\n' {
			lines = append(lines, string(buf[start:i+1]))
			start = i + 1
		}
	}
	if start < len(buf) {
		lines = append(lines, string(buf[start:])+"\n")
	}

	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return nil, err
	}
	return lines, nil
}

// truncateIfLarge empties path once it outgrows maxLogSize.
func truncateIfLarge(path string) {
	info, err := os.Stat(path)
	if err != nil || info.Size() < maxLogSize {
		return
	}
	_ = os.Truncate(path, 0)
}
