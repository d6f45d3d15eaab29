package misc

import (
	"net"

	"github.com/pkg/errors"
)

// GetFreePort asks the operating system for a tcp port nothing is listening on
func GetFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, errors.Wrap(err, "resolving localhost")
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, errors.Wrap(err, "listening for a free port")
	}

	port := l.Addr().(*net.TCPAddr).Port

	err = l.Close()
	if err != nil {
		return 0, errors.Wrap(err, "releasing free port")
	}

	return port, nil
}

// GetLocalAddress returns the ipv4 address of the first network interface that is up and is not a loopback
func GetLocalAddress() (string, error) {
	networkInterfaces, err := net.Interfaces()
	if err != nil {
		return "", errors.Wrap(err, "failed to find network interface on this device")
	}

	for _, elt := range networkInterfaces {
		if elt.Flags&net.FlagLoopback != 0 || elt.Flags&net.FlagUp == 0 {
			continue
		}

		address, err := elt.Addrs()
		if err != nil {
			return "", errors.Wrapf(err, "failed to get an address from network interface %s", elt.Name)
		}

		for _, addr := range address {
			if ip, ok := addr.(*net.IPNet); ok {
				if ip4 := ip.IP.To4(); len(ip4) == net.IPv4len {
					return ip4.String(), nil
				}
			}
		}
	}

	return "", errors.New("failed to find a non-loopback interface with valid address on this device")
}

// DefaultAddress is the local ipv4 address with port, falling back to localhost when the device has no usable
// interface
func DefaultAddress(port string) string {
	host, err := GetLocalAddress()
	if err != nil {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
