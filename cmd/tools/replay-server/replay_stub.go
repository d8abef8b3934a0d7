//go:build !pcap
// +build !pcap

package main

import (
	"context"
	"fmt"
)

// replay is a stub used when pcap support is not compiled in.
func replay(ctx context.Context, pcapFile string, udpPort int, target string, speed float64) error {
	return fmt.Errorf("PCAP replay support not compiled in (requires pcap build tag)")
}
