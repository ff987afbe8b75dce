package media

import (
	"context"
	"fmt"
	"time"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
)

// ManagedGateway mints short-lived channel tokens for the commercial RTC
// provider. The provider validates the token on its own edge; from the
// coordinator's perspective this is an opaque credential exchange.
type ManagedGateway struct {
	appID    string
	secret   []byte
	tokenTTL time.Duration
}

// ChannelClaims is the token body the managed RTC provider expects.
type ChannelClaims struct {
	AppID    string `json:"app_id"`
	Channel  string `json:"channel"`
	Identity string `json:"identity"`
	jwt.RegisteredClaims
}

func NewManagedGateway(appID, appSecret string, tokenTTL time.Duration) *ManagedGateway {
	return &ManagedGateway{
		appID:    appID,
		secret:   []byte(appSecret),
		tokenTTL: tokenTTL,
	}
}

func (g *ManagedGateway) Kind() domain.TransportKind {
	return domain.TransportManagedSDK
}

func (g *ManagedGateway) Grant(ctx context.Context, streamID domain.StreamID, identity domain.IdentityID) (*domain.StreamCredential, error) {
	channel := fmt.Sprintf("%s-%s", g.appID, streamID)
	expiresAt := time.Now().Add(g.tokenTTL)

	claims := &ChannelClaims{
		AppID:    g.appID,
		Channel:  channel,
		Identity: string(identity),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign channel token: %w", err)
	}

	return &domain.StreamCredential{
		Transport: domain.TransportManagedSDK,
		Channel:   channel,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Revoke is a no-op for the managed provider: tokens are short-lived and the
// provider drops the channel when the publisher leaves.
func (g *ManagedGateway) Revoke(ctx context.Context, streamID domain.StreamID) error {
	return nil
}
