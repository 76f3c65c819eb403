package worker

// PeerID identifies a connected Network peer. The worker treats it as an
// opaque comparable token; Network owns the real transport identity.
type PeerID string
