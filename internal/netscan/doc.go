// Package netscan discovers devices on the local network by reading the
// kernel neighbour table. It prefers `ip neigh` and falls back to `arp -an`
// on systems without iproute2, resolving hostnames best-effort through
// reverse DNS. Discovery is passive: no probes are sent.
package netscan
