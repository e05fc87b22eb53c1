package provision

import (
	"crypto/sha1"
	"net"
)

// GenerateMAC derives a stable MAC address for a container IP on a host.
// The first six bytes of SHA-1(hostname || ip) are used with the multicast
// bit cleared and the locally administered bit set.
func GenerateMAC(hostname, ip string) net.HardwareAddr {
	h := sha1.New()
	h.Write([]byte(hostname))
	h.Write([]byte(ip))
	digest := h.Sum(nil)

	mac := make(net.HardwareAddr, 6)
	copy(mac, digest[:6])

	mac[0] &^= 0x01 // unicast
	mac[0] |= 0x02  // locally administered

	return mac
}
