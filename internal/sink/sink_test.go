package sink

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pktxmt/internal/core"
	"firestige.xyz/pktxmt/internal/log"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{ConsoleName, FileName, MemoryName, UDPName}, Types())

	_, err := New("nope", nil)
	assert.ErrorIs(t, err, core.ErrSinkNotFound)

	_, err = New(FileName, map[string]interface{}{"path": ""})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	s, err := New(MemoryName, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, os.WriteFile(path, []byte{9, 9}, 0o644))

	s, err := New(FileName, map[string]interface{}{"path": path})
	require.NoError(t, err)
	_, err = s.Write([]byte{1, 2})
	require.NoError(t, err)
	_, err = s.Write([]byte{3})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	s, err = NewFile(FileCfg{Path: path, Append: true})
	require.NoError(t, err)
	_, err = s.Write([]byte{4})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestRotatingFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rot.bin")
	s, err := NewFile(FileCfg{Path: path, MaxSize: 1, MaxBackups: 2})
	require.NoError(t, err)
	_, err = s.Write([]byte("framed"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "framed", string(data))
}

func TestConsoleSinkHexDump(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithWriter(&log.LoggerConfig{Level: "info", Pattern: "%msg %field"}, &buf)

	c := NewConsole(ConsoleCfg{Width: 2}, logger)
	n, err := c.Write([]byte{0xAA, 0x55, 0x01})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "aa55 offset=0,sink=console", lines[0])
	assert.Equal(t, "01 offset=2,sink=console", lines[1])
}

func TestUDPSinkSplitsDatagrams(t *testing.T) {
	ln, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer ln.Close()

	s, err := NewUDP(UDPCfg{Address: ln.LocalAddr().String(), MaxDatagram: 4})
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Write([]byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	require.NoError(t, ln.SetReadDeadline(time.Now().Add(2*time.Second)))
	pkt := make([]byte, 64)
	n, err = ln.Read(pkt)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, pkt[:n])
	n, err = ln.Read(pkt)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6}, pkt[:n])

	_, err = NewUDP(UDPCfg{})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestMemorySink(t *testing.T) {
	m := NewMemory()
	_, err := m.Write([]byte{1})
	require.NoError(t, err)
	_, err = m.Write([]byte{2})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, m.Bytes())
	assert.False(t, m.Closed())
	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
}
