package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/screenrelay/internal/config"
	"github.com/BioHazard786/screenrelay/internal/netutil"
	"github.com/BioHazard786/screenrelay/internal/server"
	"github.com/BioHazard786/screenrelay/internal/ui"
)

var serveOpts config.Options

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling relay",
	Long: `Run the signaling relay and serve the host and viewer pages.

Flags override environment variables, which override defaults.

Examples:
  screenrelay serve
  screenrelay serve --port 8080 --room-id-format words
  screenrelay serve --allowed-origins https://share.example.com --max-viewers 10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(serveOpts)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveOpts.Host, "host", "", "bind address (env HOST, default all interfaces)")
	f.IntVarP(&serveOpts.Port, "port", "p", 0, "listen port (env PORT, default 3000)")
	f.StringVar(&serveOpts.RoomIDFormat, "room-id-format", "", "room code format: uuid, short or words (env ROOM_ID_FORMAT)")
	f.IntVar(&serveOpts.MaxViewersPerRoom, "max-viewers", 0, "viewers allowed per room, 0 for unlimited (env MAX_VIEWERS)")
	f.StringVar(&serveOpts.AllowedOrigins, "allowed-origins", "", "comma separated browser origins allowed to connect (env ALLOWED_ORIGINS)")
	f.BoolVar(&serveOpts.CaptureAudio, "audio", false, "ask hosts to capture tab audio (env CAPTURE_AUDIO)")
	f.StringVar(&serveOpts.STUNServer, "stun", "", "STUN server published to pages (env STUN_SERVER)")
	f.StringVar(&serveOpts.TURNServer, "turn", "", "TURN server published to pages (env TURN_SERVER)")
	f.StringVar(&serveOpts.TURNUser, "turn-user", "", "TURN username (env TURN_USERNAME)")
	f.StringVar(&serveOpts.TURNPass, "turn-pass", "", "TURN password (env TURN_PASSWORD)")
	f.BoolVar(&serveOpts.RoomsAPI, "rooms-api", false, "expose the /api/rooms listing (env ROOMS_API)")

	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config, out io.Writer) error {
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return err
	}

	srv := server.New(cfg, slog.Default())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	printShareLinks(out, cfg.Host, ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// printShareLinks shows where hosts and viewers on the LAN can open the pages.
func printShareLinks(out io.Writer, bindHost string, addr net.Addr) {
	port := strconv.Itoa(addr.(*net.TCPAddr).Port)

	hosts := []string{bindHost}
	if bindHost == "" || bindHost == "0.0.0.0" || bindHost == "::" {
		hosts = []string{"localhost"}
		if ifaces, err := netutil.Interfaces(); err == nil {
			hosts = append(hosts, netutil.ShareableIPv4(ifaces)...)
		}
	}

	fmt.Fprintln(out, ui.TitleStyle.Render(fmt.Sprintf("%s screenrelay %s", ui.IconScreen, addr)))
	for _, h := range hosts {
		base := "http://" + net.JoinHostPort(h, port)
		fmt.Fprintf(out, "%s Share: %s  Watch: %s\n", ui.IconInfo, ui.BoldStyle.Render(base+"/host"), ui.BoldStyle.Render(base+"/viewer"))
	}
}
