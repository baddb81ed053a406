package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/marmos91/sharegate/pkg/config"
	"github.com/marmos91/sharegate/pkg/content"
)

var (
	getFlags  remoteFlags
	getRange  string
	getOutput string
)

var getCmd = &cobra.Command{
	Use:   "get <target>",
	Short: "Download a remote file, whole or by byte range",
	Long: `Download a file through the same streaming path the HTTP server uses.

--range takes an HTTP Range header value; the selected window is written
instead of the whole file.

Examples:
  # Print a file to stdout
  sharegate get smb://fileserver/docs/readme.txt

  # Save the first megabyte of a video
  sharegate get smb://fileserver/media/a.mkv -r bytes=0-1048575 -O head.mkv

  # Fetch the last 100 bytes
  sharegate get s3://logs/app.log -r bytes=-100`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getFlags.register(getCmd)
	getCmd.Flags().StringVarP(&getRange, "range", "r", "", "Byte range, e.g. bytes=0-99")
	getCmd.Flags().StringVarP(&getOutput, "output-file", "O", "", "Write to this file instead of stdout")
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := openRemote(ctx, args[0], &getFlags)
	if err != nil {
		return err
	}
	defer t.Close()
	f := t.file

	if !f.IsFile() {
		return fmt.Errorf("%s is a %s, not a file (use 'sharegate ls')", f.Location(), f.Kind())
	}

	opts := config.ContentOptions(t.cfg.Content)
	full, partial := content.NewFullStreamer(opts), content.NewRangeStreamer(opts)

	c, err := content.ForRequest(full, partial, getRange).Open(ctx, f, getRange)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	var w io.Writer = cmd.OutOrStdout()
	if getOutput != "" {
		out, err := os.Create(getOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = out.Close() }()
		w = out
	}

	n, err := c.WriteTo(ctx, w)
	if err != nil {
		return err
	}
	if getOutput != "" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s to %s", humanize.IBytes(uint64(n)), getOutput)
		if c.Range != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), " (bytes %s)", c.Range.ContentRange())
		}
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
	}
	return nil
}
