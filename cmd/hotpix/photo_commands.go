package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hotpix/internal/config"
	"hotpix/internal/importer"
	"hotpix/internal/photos"
)

func newPhotoCommand(ctx *commandContext) *cobra.Command {
	photoCmd := &cobra.Command{
		Use:   "photo",
		Short: "Work with individual photos",
	}
	photoCmd.AddCommand(newPhotoAddCommand(ctx))
	photoCmd.AddCommand(newPhotoShowCommand(ctx))
	photoCmd.AddCommand(newPhotoAttachCommand(ctx))
	photoCmd.AddCommand(newPhotoDeleteCommand(ctx))
	return photoCmd
}

func newPhotoAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: "Import a single photo file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withTracker(func(_ *config.Config, tracker *importer.Tracker, _ *photos.Store) error {
				photo, file, err := tracker.CreateFromFile(cmd.Context(), path)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created photo %s\n", photo.Hothash)
				fmt.Fprintf(out, "Stored original at %s\n", file.FilePath)
				return nil
			})
		},
	}
}

func newPhotoShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <hothash>",
		Short: "Show a photo and its source files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *photos.Store) error {
				photo, err := store.GetPhoto(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if photo == nil {
					return fmt.Errorf("photo %s not found", args[0])
				}
				files, err := store.ImageFilesForPhoto(cmd.Context(), photo.Hothash)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				rows := [][]string{
					{"Hothash", photo.Hothash},
					{"Perceptual hash", photo.PerceptualHash},
					{"Dimensions", fmt.Sprintf("%dx%d", photo.Width, photo.Height)},
					{"Camera", photo.ExifSummary},
					{"Taken", formatTime(photo.TakenAt)},
					{"GPS", formatGPS(photo.GPSLatitude, photo.GPSLongitude)},
					{"Rating", strconv.Itoa(photo.Rating)},
					{"Tags", photo.Tags},
					{"Visibility", photo.Visibility},
					{"Preview size", fmt.Sprintf("%d bytes", len(photo.HotPreview))},
					{"Registered", formatTime(&photo.CreatedAt)},
				}
				fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, nil))

				if len(files) == 0 {
					return nil
				}
				fileRows := make([][]string, 0, len(files))
				for _, f := range files {
					raw := "-"
					if f.HasRawCompanion() {
						raw = f.RawFilePath
					}
					fileRows = append(fileRows, []string{
						strconv.FormatInt(f.ID, 10),
						f.Filename,
						f.FilePath,
						f.FileFormat,
						raw,
					})
				}
				headers := []string{"ID", "Filename", "Cold path", "Format", "RAW companion"}
				fmt.Fprintln(out, renderTable(out, headers, fileRows, nil))
				return nil
			})
		},
	}
}

func newPhotoAttachCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <hothash> <file>",
		Short: "Attach an additional source file to an existing photo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}
			return ctx.withTracker(func(_ *config.Config, tracker *importer.Tracker, _ *photos.Store) error {
				file, err := tracker.AttachFile(cmd.Context(), args[0], path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Attached %s to photo %s (record %d)\n",
					file.Filename, file.PhotoHothash, file.ID)
				return nil
			})
		},
	}
}

func newPhotoDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <hothash>",
		Short: "Delete a photo and its file records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTracker(func(_ *config.Config, tracker *importer.Tracker, _ *photos.Store) error {
				if err := tracker.DeletePhoto(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted photo %s\n", args[0])
				return nil
			})
		},
	}
}
