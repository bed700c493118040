package session

import "net"

// LocalIP returns the host's LAN address so the desktop client can render a
// join URL (typically inside a QR code) that phones on the same network can
// reach. Discovery works by opening a UDP "connection" to a public address
// and reading the chosen source IP; no packet is ever sent. Any failure
// falls back to loopback rather than surfacing an error.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "127.0.0.1"
	}
	return addr.IP.String()
}
