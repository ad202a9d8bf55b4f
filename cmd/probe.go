package cmd

import (
	"fmt"
	"time"

	pion "github.com/pion/webrtc/v4"
	"github.com/spf13/cobra"

	"github.com/BioHazard786/screenrelay/internal/config"
	"github.com/BioHazard786/screenrelay/internal/netutil"
	"github.com/BioHazard786/screenrelay/internal/probe"
	"github.com/BioHazard786/screenrelay/internal/ui"
)

var (
	flagProbeURL      string
	flagProbeTimeout  time.Duration
	flagProbeLoopback bool
	flagProbeSTUN     string
	flagProbeTURN     string
	flagProbeTURNUser string
	flagProbeTURNPass string
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check a running relay end to end",
	Long: `Connect a headless host and viewer to a relay, negotiate a WebRTC data
channel through it and verify that the viewer is told when the host leaves.

Examples:
  screenrelay probe
  screenrelay probe --url wss://share.example.com/ws --timeout 30s
  screenrelay probe --loopback`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.Config{
			STUNServer: flagProbeSTUN,
			TURNServer: flagProbeTURN,
			TURNUser:   flagProbeTURNUser,
			TURNPass:   flagProbeTURNPass,
		}

		if cfg.TURNServer == "" && !flagProbeLoopback {
			if ifaces, err := netutil.Interfaces(); err == nil && netutil.LikelyNeedsRelay(ifaces) {
				ui.PrintWarning("VPN or CGNAT detected; the data channel may not connect without --turn")
			}
		}

		spinner := ui.NewConnectionSpinner(fmt.Sprintf("Probing %s...", flagProbeURL))
		spinner.Start()
		defer spinner.Stop()

		report, err := probe.Run(cmd.Context(), probe.Options{
			URL:             flagProbeURL,
			ICEServers:      pionICEServers(cfg.ICEServers()),
			Timeout:         flagProbeTimeout,
			IncludeLoopback: flagProbeLoopback,
			OnStep: func(s probe.Step) {
				spinner.UpdateMessage(fmt.Sprintf("%s (%s)", s.Name, ui.FormatLatency(s.Elapsed)))
			},
		})
		if err != nil {
			spinner.Error(fmt.Sprintf("Probe failed after %d step(s)", len(report.Steps)))
			if len(report.Steps) > 0 {
				fmt.Println(ui.ProbeReportView(report))
			}
			return err
		}

		spinner.Success(fmt.Sprintf("Relay is healthy (room %s)", report.RoomID))
		fmt.Println(ui.ProbeReportView(report))
		return nil
	},
}

func init() {
	f := probeCmd.Flags()
	f.StringVarP(&flagProbeURL, "url", "u", "ws://localhost:3000/ws", "relay websocket URL")
	f.DurationVarP(&flagProbeTimeout, "timeout", "t", probe.DefaultTimeout, "overall deadline")
	f.BoolVar(&flagProbeLoopback, "loopback", false, "allow loopback ICE candidates (relay and probe on one host)")
	f.StringVar(&flagProbeSTUN, "stun", "", "STUN server for the probe peers")
	f.StringVar(&flagProbeTURN, "turn", "", "TURN server for the probe peers")
	f.StringVar(&flagProbeTURNUser, "turn-user", "", "TURN username")
	f.StringVar(&flagProbeTURNPass, "turn-pass", "", "TURN password")

	rootCmd.AddCommand(probeCmd)
}

func pionICEServers(servers []config.ICEServer) []pion.ICEServer {
	out := make([]pion.ICEServer, 0, len(servers))
	for _, s := range servers {
		out = append(out, pion.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	return out
}
