package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/justyntemme/razord/internal/app"
	"github.com/justyntemme/razord/internal/trash"
)

var lsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return withApp(func(a *app.App) error {
			entries, err := a.ListDirectory(dir)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				size := "-"
				if !e.IsDir {
					size = humanize.Bytes(uint64(e.Size))
				}
				modified := humanize.Time(time.UnixMilli(e.Modified))
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Type, size, modified, e.Name)
			}
			return tw.Flush()
		})
	},
}

var drivesCmd = &cobra.Command{
	Use:   "drives",
	Short: "List mounted volumes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, d := range a.ListDrives() {
				fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Path)
			}
			return tw.Flush()
		})
	},
}

var catMaxBytes int

var catCmd = &cobra.Command{
	Use:   "cat <file>",
	Short: "Print the start of a text file as UTF-8",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			text, err := a.ReadText(args[0], catMaxBytes)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		})
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp <source>... <dest-dir>",
	Short: "Copy files and directories into a directory",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, dest := args[:len(args)-1], args[len(args)-1]
		return withApp(func(a *app.App) error { return a.Copy(sources, dest) })
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <source>... <dest-dir>",
	Short: "Move files and directories into a directory, across volumes if needed",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, dest := args[:len(args)-1], args[len(args)-1]
		return withApp(func(a *app.App) error { return a.Move(sources, dest) })
	},
}

var dupCmd = &cobra.Command{
	Use:   "dup <path>...",
	Short: `Duplicate files and directories next to themselves as "name (copy)"`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			created, err := a.Duplicate(args)
			for _, p := range created {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		})
	},
}

var rmPermanent bool

var rmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Move paths to the trash, or delete them with --permanent",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !rmPermanent && !trash.IsAvailable() {
			return fmt.Errorf("%w; use --permanent", trash.ErrUnavailable)
		}
		return withApp(func(a *app.App) error { return a.Delete(args, !rmPermanent) })
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <dir>",
	Short: "Create a directory and its parents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error { return a.CreateDirectory(args[0]) })
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error { return a.Rename(args[0], args[1]) })
	},
}

var zipCmd = &cobra.Command{
	Use:   "zip <archive.zip> <source>...",
	Short: "Compress files and directories into a zip archive",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			dest, err := a.CompressToArchive(args[1:], args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(dest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", dest, humanize.Bytes(uint64(info.Size())))
			return nil
		})
	},
}

func init() {
	catCmd.Flags().IntVarP(&catMaxBytes, "max-bytes", "n", 64*1024, "Maximum number of bytes to read")
	rmCmd.Flags().BoolVar(&rmPermanent, "permanent", false, "Delete instead of moving to the "+trash.DisplayName())
}
