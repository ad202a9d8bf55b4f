// Package netutil inspects the local network interfaces.
package netutil

import (
	"net"
	"sort"
	"strings"
)

// Carrier-grade NAT range. Cloudflare WARP and Tailscale also live here.
var cgnatBlock = mustCIDR("100.64.0.0/10")

func mustCIDR(s string) *net.IPNet {
	_, block, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return block
}

// tunnelNames are interface name fragments used by VPN adapters.
var tunnelNames = []string{"tun", "tap", "wg", "ppp", "warp", "utun"}

// Iface is the subset of net.Interface the checks below need.
type Iface struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    []net.IP
}

// Interfaces lists the host's interfaces with their IP addresses.
func Interfaces() ([]Iface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]Iface, 0, len(ifaces))
	for _, iface := range ifaces {
		it := Iface{
			Name:     iface.Name,
			Up:       iface.Flags&net.FlagUp != 0,
			Loopback: iface.Flags&net.FlagLoopback != 0,
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			switch v := addr.(type) {
			case *net.IPNet:
				it.Addrs = append(it.Addrs, v.IP)
			case *net.IPAddr:
				it.Addrs = append(it.Addrs, v.IP)
			}
		}
		out = append(out, it)
	}
	return out, nil
}

// ShareableIPv4 returns the private IPv4 addresses other machines on the LAN
// can reach the relay on, sorted.
func ShareableIPv4(ifaces []Iface) []string {
	var ips []string
	for _, iface := range ifaces {
		if !iface.Up || iface.Loopback || isTunnel(iface.Name) {
			continue
		}
		for _, ip := range iface.Addrs {
			if v4 := ip.To4(); v4 != nil && v4.IsPrivate() {
				ips = append(ips, v4.String())
			}
		}
	}
	sort.Strings(ips)
	return ips
}

// LikelyNeedsRelay reports whether the host looks to be behind a VPN or CGNAT,
// where direct peer connections often fail without TURN.
func LikelyNeedsRelay(ifaces []Iface) bool {
	for _, iface := range ifaces {
		if !iface.Up || iface.Loopback {
			continue
		}
		if isTunnel(iface.Name) {
			return true
		}
		for _, ip := range iface.Addrs {
			if cgnatBlock.Contains(ip) {
				return true
			}
		}
	}
	return false
}

func isTunnel(name string) bool {
	name = strings.ToLower(name)
	for _, frag := range tunnelNames {
		if strings.Contains(name, frag) {
			return true
		}
	}
	return false
}
