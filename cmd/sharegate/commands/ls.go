package commands

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/marmos91/sharegate/internal/cli/output"
	"github.com/marmos91/sharegate/pkg/remotefs"
)

var (
	lsFlags  remoteFlags
	lsOutput string
)

var lsCmd = &cobra.Command{
	Use:   "ls <target>",
	Short: "List a remote directory",
	Long: `List a directory, share or server the way the web index does.

Targets use the same forms the web form accepts: smb://host/share/dir/,
//host/share, \\host\share or s3://bucket/prefix/.

Examples:
  # List the shares of a server as guest
  sharegate ls smb://fileserver/

  # List a directory as a domain user (password is prompted for)
  sharegate ls -u 'CORP\alice' smb://fileserver/media/films/

  # Machine-readable output
  sharegate ls s3://backups/ -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runLs,
}

func init() {
	lsFlags.register(lsCmd)
	lsCmd.Flags().StringVarP(&lsOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// listing renders FileInfo entries as a table.
type listing []remotefs.FileInfo

func (l listing) Headers() []string {
	return []string{"KIND", "NAME", "SIZE", "MODIFIED"}
}

func (l listing) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		size, modified := "-", "-"
		if !e.Kind.IsContainer() {
			size = humanize.IBytes(uint64(e.Size))
		}
		if !e.ModTime.IsZero() {
			modified = humanize.Time(e.ModTime)
		}
		name := e.Name
		if e.Kind.IsContainer() {
			name += "/"
		}
		rows = append(rows, []string{string(e.Kind), name, size, modified})
	}
	return rows
}

func runLs(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(lsOutput)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	t, err := openRemote(ctx, args[0], &lsFlags)
	if err != nil {
		return err
	}
	defer t.Close()
	f := t.file

	entries := []remotefs.File{f}
	if f.Kind().IsContainer() {
		if entries, err = remotefs.List(ctx, f); err != nil {
			return err
		}
	}

	result := make(listing, len(entries))
	for i, e := range entries {
		result[i] = remotefs.Info(e)
	}

	if format == output.FormatTable {
		return output.PrintTable(cmd.OutOrStdout(), result)
	}
	return output.Print(cmd.OutOrStdout(), format, []remotefs.FileInfo(result))
}
