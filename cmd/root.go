package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "musan",
	Short: "Staff notation to solfa",
	Long: `musan names melodies in movable-do solfa (do re mi fa so la ti) for any
of the 15 major keys. Notes come from the command line, MIDI files, a live MIDI
keyboard or an external notation recognizer.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(loadEnv)
}

// .env is optional
func loadEnv() {
	_ = godotenv.Load()
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
