package media

import (
	"fmt"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/ports"
	"github.com/123hpcomsetup-j/streamvibe/pkg/config"
)

// NewGateway selects the media gateway for the configured provider. All three
// variants satisfy the same capability interface; only the start/stop
// credential exchange differs.
func NewGateway(cfg *config.Config) (ports.MediaGateway, error) {
	switch cfg.Media.Provider {
	case "p2p":
		return NewPeerToPeerGateway(cfg.ICEServers()), nil
	case "managed":
		return NewManagedGateway(cfg.Media.AppID, cfg.Media.AppSecret, cfg.Media.TokenTTL), nil
	case "ingest":
		return NewIngestGateway(cfg.Media.IngestBase, cfg.Media.HLSBase), nil
	default:
		return nil, fmt.Errorf("unknown media provider: %s", cfg.Media.Provider)
	}
}
