package blockchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplorerURL(t *testing.T) {
	sig := "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
	assert.Equal(t, "https://explorer.solana.com/tx/"+sig+"?cluster=devnet", ExplorerURL(sig, ""))
	assert.Equal(t, "https://explorer.solana.com/tx/"+sig+"?cluster=mainnet-beta", ExplorerURL(sig, MainnetBeta))
}

func TestParseCluster(t *testing.T) {
	c, err := ParseCluster("")
	require.NoError(t, err)
	assert.Equal(t, Devnet, c)

	c, err = ParseCluster("testnet")
	require.NoError(t, err)
	assert.Equal(t, Testnet, c)

	_, err = ParseCluster("localnet")
	assert.Error(t, err)
}
