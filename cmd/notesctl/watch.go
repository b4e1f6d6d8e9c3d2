package main

import (
	"github.com/spf13/cobra"

	"notes-backend/internal/watcher"
)

var (
	watchDir   string
	watchOwner string
	watchEmail string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Turn audio files dropped into a directory into voice notes",
	Long: `Watch processes audio files already in --dir and every new one that
appears, one at a time. Finished files move into a "processed" subdirectory;
files that fail stay where they are.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		participant := watchEmail
		if participant == "" {
			participant = app.UsersService.ParticipantName(cmd.Context(), watchOwner, "")
		}
		w, err := watcher.New(watchDir, app.Processor, watcher.Options{OwnerID: watchOwner, Participant: participant})
		if err != nil {
			return err
		}
		return w.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchDir, "dir", ".", "Directory to watch")
	watchCmd.Flags().StringVar(&watchOwner, "owner", "", "Owner id the notes are saved under")
	watchCmd.Flags().StringVar(&watchEmail, "email", "", "Participant recorded on each note")
	_ = watchCmd.MarkFlagRequired("owner")
}
