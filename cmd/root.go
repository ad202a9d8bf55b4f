package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/screenrelay/internal/ui"
	"github.com/BioHazard786/screenrelay/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screenrelay",
	Short: "Signaling relay for browser screen sharing over WebRTC",
	Long: `screenrelay pairs one screen-sharing host with any number of viewers.
It only relays the WebRTC handshake (offers, answers and ICE candidates);
media flows directly between the browsers.

Run "screenrelay serve" to start the relay, "screenrelay probe" to check a
running relay end to end and "screenrelay rooms" to list its live rooms.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}
