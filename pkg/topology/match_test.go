package topology

import (
	"net/netip"
	"testing"

	"github.com/cuemby/vespanet/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(prefix string, link int) types.HostAddress {
	p := netip.MustParsePrefix(prefix)
	return types.HostAddress{Addr: p.Addr(), PrefixLen: p.Bits(), LinkIndex: link}
}

func TestBestMatch(t *testing.T) {
	host := []types.HostAddress{
		addr("10.0.2.15/24", 3),
		addr("192.168.1.5/16", 5),
	}

	tests := []struct {
		name     string
		addrs    []types.HostAddress
		target   string
		wantLink int
		wantLen  int
	}{
		{
			name:     "only containing network on device 3",
			addrs:    host,
			target:   "10.0.2.20",
			wantLink: 3,
			wantLen:  24,
		},
		{
			name:     "only containing network on device 5",
			addrs:    host,
			target:   "192.168.1.200",
			wantLink: 5,
			wantLen:  16,
		},
		{
			name: "broader network wins over narrower",
			addrs: []types.HostAddress{
				addr("172.16.5.1/24", 7),
				addr("172.16.0.1/12", 8),
				addr("172.16.5.129/25", 9),
			},
			target:   "172.16.5.200",
			wantLink: 8,
			wantLen:  12,
		},
		{
			name: "equal prefix keeps first seen",
			addrs: []types.HostAddress{
				addr("10.1.0.1/16", 4),
				addr("10.1.0.2/16", 6),
			},
			target:   "10.1.9.9",
			wantLink: 4,
			wantLen:  16,
		},
		{
			name: "host address itself is inside its network",
			addrs: []types.HostAddress{
				addr("10.0.2.15/24", 3),
			},
			target:   "10.0.2.15",
			wantLink: 3,
			wantLen:  24,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BestMatch(netip.MustParseAddr(tt.target), tt.addrs)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLink, got.LinkIndex)
			assert.Equal(t, tt.wantLen, got.PrefixLen)
		})
	}
}

func TestBestMatchSmallestPrefixProperty(t *testing.T) {
	target := netip.MustParseAddr("10.20.30.40")
	var addrs []types.HostAddress
	for bits := 32; bits >= 8; bits-- {
		p := netip.PrefixFrom(target, bits).Masked()
		addrs = append(addrs, types.HostAddress{Addr: p.Addr().Next(), PrefixLen: bits, LinkIndex: bits})
	}
	// an unrelated broader network must not win
	addrs = append(addrs, addr("12.0.0.1/7", 99))

	got, err := BestMatch(target, addrs)
	require.NoError(t, err)

	for _, c := range Candidates(target, addrs) {
		assert.LessOrEqual(t, got.PrefixLen, c.PrefixLen)
	}
	assert.Equal(t, 8, got.PrefixLen)
}

func TestBestMatchNoMatch(t *testing.T) {
	_, err := BestMatch(netip.MustParseAddr("8.8.8.8"), []types.HostAddress{
		addr("10.0.2.15/24", 3),
		addr("192.168.1.5/16", 5),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNoMatchingNetwork)
	assert.Contains(t, err.Error(), "8.8.8.8")
	assert.Contains(t, err.Error(), "10.0.2.0/24")
	assert.Contains(t, err.Error(), "192.168.0.0/16")
}

func TestBestMatchEmptyHost(t *testing.T) {
	_, err := BestMatch(netip.MustParseAddr("10.0.0.1"), nil)
	assert.ErrorIs(t, err, types.ErrNoMatchingNetwork)
}

func TestBestMatchRejectsIPv6Target(t *testing.T) {
	_, err := BestMatch(netip.MustParseAddr("fd00::1"), []types.HostAddress{addr("10.0.2.15/24", 3)})
	assert.ErrorIs(t, err, types.ErrArgument)
}
