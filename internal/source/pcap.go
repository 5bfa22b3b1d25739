package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/pktxmt/internal/core"
	"firestige.xyz/pktxmt/internal/log"
)

const PCAPName = "pcap"

// PCAPCfg configures a PCAP source.
type PCAPCfg struct {
	FilePath string `mapstructure:"file_path"`
	Port     uint16 `mapstructure:"port"` // 0 = any UDP port
}

// PCAP replays the UDP payloads of an Ethernet pcap file as PDUs.
type PCAP struct {
	path string
	port uint16

	parser  *gopacket.DecodingLayerParser
	eth     layers.Ethernet
	ip4     layers.IPv4
	ip6     layers.IPv6
	udp     layers.UDP
	payload gopacket.Payload
	decoded []gopacket.LayerType

	logger log.Logger
}

func init() {
	Register(PCAPName, func(options map[string]interface{}) (PDUSource, error) {
		var cfg PCAPCfg
		if err := decode(options, &cfg); err != nil {
			return nil, err
		}
		return NewPCAP(cfg)
	})
}

func NewPCAP(cfg PCAPCfg) (*PCAP, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("%w: file_path is required", core.ErrConfigInvalid)
	}
	p := &PCAP{
		path:   cfg.FilePath,
		port:   cfg.Port,
		logger: log.GetLogger().WithField("source", PCAPName),
	}
	p.parser = gopacket.NewDecodingLayerParser(
		layers.LayerTypeEthernet,
		&p.eth,
		&p.ip4,
		&p.ip6,
		&p.udp,
		&p.payload,
	)
	p.parser.IgnoreUnsupported = true
	return p, nil
}

func (p *PCAP) Name() string { return PCAPName }

func (p *PCAP) Run(ctx context.Context, out chan<- core.PDU) error {
	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("failed to open pcap file %s: %w", p.path, err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read pcap header %s: %w", p.path, err)
	}
	if r.LinkType() != layers.LinkTypeEthernet {
		return fmt.Errorf("unsupported link type %s", r.LinkType())
	}

	for {
		data, ci, err := r.ReadPacketData()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}
		payload, ok := p.udpPayload(data)
		if !ok {
			continue
		}
		pdu := core.PDU{
			Data:      payload,
			Timestamp: ci.Timestamp,
			Meta:      map[string]any{"src_port": uint16(p.udp.SrcPort), "dst_port": uint16(p.udp.DstPort)},
		}
		if err := emit(ctx, out, pdu); err != nil {
			return err
		}
	}
}

// udpPayload returns a copy of the UDP payload of data, if it carries one
// matching the configured port.
func (p *PCAP) udpPayload(data []byte) ([]byte, bool) {
	p.decoded = p.decoded[:0]
	if err := p.parser.DecodeLayers(data, &p.decoded); err != nil {
		p.logger.WithError(err).Debug("skipping undecodable packet")
		return nil, false
	}
	var sawUDP bool
	for _, lt := range p.decoded {
		if lt == layers.LayerTypeUDP {
			sawUDP = true
		}
	}
	if !sawUDP || len(p.udp.Payload) == 0 {
		return nil, false
	}
	if p.port != 0 && uint16(p.udp.DstPort) != p.port && uint16(p.udp.SrcPort) != p.port {
		return nil, false
	}
	return append([]byte(nil), p.udp.Payload...), true
}
