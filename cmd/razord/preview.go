package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/justyntemme/razord/internal/app"
)

var errNoResult = errors.New("no preview available")

var (
	thumbKind string
	thumbSize int
	thumbOut  string
)

var thumbCmd = &cobra.Command{
	Use:   "thumb <file>",
	Short: "Render a cached PNG thumbnail",
	Long: `Render a PNG thumbnail of an image, Photoshop document or video frame
through the thumbnail cache. The PNG is written to --out, or to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			var (
				b64 string
				ok  bool
				err error
			)
			switch thumbKind {
			case "image":
				b64, ok, err = a.GetImageThumbnail(args[0], thumbSize)
			case "psd":
				b64, ok, err = a.GetLayeredImageThumbnail(args[0], thumbSize)
			case "video":
				b64, ok, err = a.GetVideoThumbnail(args[0], thumbSize)
			default:
				return fmt.Errorf("unknown kind %q (want image, psd or video)", thumbKind)
			}
			if err != nil {
				return err
			}
			if !ok {
				return errNoResult
			}
			return writePNG(cmd.OutOrStdout(), b64, thumbOut)
		})
	},
}

var (
	iconSize int
	iconOut  string
)

var iconCmd = &cobra.Command{
	Use:   "icon <path>",
	Short: "Write the native icon for a path as PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			b64, ok := a.GetIcon(args[0], iconSize)
			if !ok {
				return errNoResult
			}
			return writePNG(cmd.OutOrStdout(), b64, iconOut)
		})
	},
}

var dimsCmd = &cobra.Command{
	Use:   "dims <file>",
	Short: "Print the pixel size of an image or Photoshop document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			dims, err := a.GetDimensions(args[0])
			if err != nil {
				return err
			}
			if dims == nil {
				return errNoResult
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%dx%d\n", dims[0], dims[1])
			return nil
		})
	},
}

func init() {
	thumbCmd.Flags().StringVarP(&thumbKind, "kind", "k", "image", "Preview kind: image, psd or video")
	thumbCmd.Flags().IntVarP(&thumbSize, "size", "s", 256, "Bounding box in pixels")
	thumbCmd.Flags().StringVarP(&thumbOut, "out", "o", "", "Output file (default stdout)")

	iconCmd.Flags().IntVarP(&iconSize, "size", "s", 48, "Icon size in pixels")
	iconCmd.Flags().StringVarP(&iconOut, "out", "o", "", "Output file (default stdout)")
}

func writePNG(stdout io.Writer, b64, out string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return err
	}
	if out == "" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}
