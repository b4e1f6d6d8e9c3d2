package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"notes-backend/internal/notes"
)

var (
	exportOwner  string
	exportID     string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a note to a txt or docx file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		file, err := app.NotesService.Export(cmd.Context(), exportOwner, exportID, "", exportFormat)
		if err != nil {
			return fmt.Errorf("export %s: %w", exportID, err)
		}
		dest := exportOut
		if dest == "" {
			dest = file.Name
		} else if info, err := os.Stat(dest); err == nil && info.IsDir() {
			dest = filepath.Join(dest, file.Name)
		}
		if err := os.WriteFile(dest, file.Body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), dest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportOwner, "owner", "", "Owner id of the note")
	exportCmd.Flags().StringVar(&exportID, "id", "", "Note id")
	exportCmd.Flags().StringVar(&exportFormat, "format", notes.FormatText, "txt or docx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file or directory (default: ./<title>.<ext>)")
	_ = exportCmd.MarkFlagRequired("owner")
	_ = exportCmd.MarkFlagRequired("id")
}
