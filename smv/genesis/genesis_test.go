package genesis

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/smvblock/go-smv/crypto"
	"github.com/smvblock/go-smv/smv"
)

func TestFakeKeyIsDeterministic(t *testing.T) {
	require := require.New(t)

	// The pre-funded fakenet accounts are fixed values, not just stable
	// within a process. Independently booted nodes must derive them too.
	require.Equal(common.HexToAddress("0xc2E4D1Ddb8Bfa27CA6EBe3F089D22BAAB1D6bD3d"),
		crypto.KeyAddress(FakeKey(0)))
	require.Equal(common.HexToAddress("0x86021accE1b97eFb2bc3632C03b68eaf731aeFFf"),
		crypto.KeyAddress(FakeKey(1)))
	require.Equal(common.HexToAddress("0xe3F377E01cf5DA58C810d1FadFd9F7ac46e3411c"),
		crypto.KeyAddress(FakeKey(2)))

	require.Equal(crypto.KeyAddress(FakeKey(0)), crypto.KeyAddress(FakeKey(0)))
	require.NotEqual(crypto.KeyAddress(FakeKey(0)), crypto.KeyAddress(FakeKey(1)))
}

func TestHashPinsConfiguration(t *testing.T) {
	require := require.New(t)

	a := FakeGenesis(3)
	b := FakeGenesis(3)
	require.Equal(a.Hash(), b.Hash())

	// Allocation order must not matter.
	b.Alloc[0], b.Alloc[1] = b.Alloc[1], b.Alloc[0]
	require.Equal(a.Hash(), b.Hash())

	// Any change of content must.
	c := FakeGenesis(3)
	c.Alloc[0].Balance++
	require.NotEqual(a.Hash(), c.Hash())

	d := FakeGenesis(2)
	require.NotEqual(a.Hash(), d.Hash())

	e := FakeGenesis(3)
	e.NetworkID = smv.MainNetworkID
	require.NotEqual(a.Hash(), e.Hash())
}

func TestTotalSupply(t *testing.T) {
	g := FakeGenesis(3)
	require.Equal(t, 3*FakeBalance, g.TotalSupply())
}

func TestByNetwork(t *testing.T) {
	require := require.New(t)

	require.Equal(smv.MainNetworkID, ByNetwork(smv.MainNetRules()).NetworkID)
	require.Equal(smv.TestNetworkID, ByNetwork(smv.TestNetRules()).NetworkID)
	require.Equal(smv.FakeNetworkID, ByNetwork(smv.FakeNetRules()).NetworkID)

	// Built-in genesis configs never change between calls.
	a, b := MainNetGenesis(), MainNetGenesis()
	require.Equal(a.Hash(), b.Hash())
}
