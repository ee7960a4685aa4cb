// internal/blockchain/explorer.go
package blockchain

import (
	"fmt"
	"net/url"
)

// Cluster names a Solana network as the explorer spells it.
type Cluster string

const (
	Devnet      Cluster = "devnet"
	Testnet     Cluster = "testnet"
	MainnetBeta Cluster = "mainnet-beta"

	DefaultCluster = Devnet
)

const explorerBase = "https://explorer.solana.com/tx/"

// ParseCluster accepts the three public cluster names. An empty string means DefaultCluster.
func ParseCluster(s string) (Cluster, error) {
	switch Cluster(s) {
	case "":
		return DefaultCluster, nil
	case Devnet, Testnet, MainnetBeta:
		return Cluster(s), nil
	default:
		return "", fmt.Errorf("unknown cluster %q (expected devnet, testnet or mainnet-beta)", s)
	}
}

// ExplorerURL links a transaction signature to the public explorer.
func ExplorerURL(signature string, cluster Cluster) string {
	if cluster == "" {
		cluster = DefaultCluster
	}
	return explorerBase + url.PathEscape(signature) + "?cluster=" + url.QueryEscape(string(cluster))
}
