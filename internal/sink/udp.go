package sink

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"

	"firestige.xyz/pktxmt/internal/core"
)

const UDPName = "udp"

// UDPCfg configures a UDP sink.
type UDPCfg struct {
	Address           string `mapstructure:"address"`
	MaxDatagram       int    `mapstructure:"max_datagram"`
	MulticastTTL      int    `mapstructure:"multicast_ttl"`
	MulticastLoopback bool   `mapstructure:"multicast_loopback"`
}

// UDP sends the stream as datagrams of at most MaxDatagram bytes. A write
// never merges with an earlier one.
type UDP struct {
	conn    *net.UDPConn
	maxSize int
}

func init() {
	Register(UDPName, func(options map[string]interface{}) (Sink, error) {
		var cfg UDPCfg
		if err := decode(options, &cfg); err != nil {
			return nil, err
		}
		return NewUDP(cfg)
	})
}

func NewUDP(cfg UDPCfg) (*UDP, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: address is required", core.ErrConfigInvalid)
	}
	if cfg.MaxDatagram <= 0 {
		cfg.MaxDatagram = 1472
	}
	raddr, err := net.ResolveUDPAddr("udp4", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cfg.Address, err)
	}
	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Address, err)
	}

	if raddr.IP.IsMulticast() {
		pc := ipv4.NewPacketConn(conn)
		if cfg.MulticastTTL > 0 {
			if err := pc.SetMulticastTTL(cfg.MulticastTTL); err != nil {
				conn.Close()
				return nil, fmt.Errorf("set multicast ttl: %w", err)
			}
		}
		if err := pc.SetMulticastLoopback(cfg.MulticastLoopback); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set multicast loopback: %w", err)
		}
	}

	return &UDP{conn: conn, maxSize: cfg.MaxDatagram}, nil
}

func (u *UDP) Name() string { return UDPName }

// LocalAddr returns the local address of the socket.
func (u *UDP) LocalAddr() net.Addr { return u.conn.LocalAddr() }

func (u *UDP) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		end := min(written+u.maxSize, len(p))
		n, err := u.conn.Write(p[written:end])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (u *UDP) Close() error { return u.conn.Close() }
