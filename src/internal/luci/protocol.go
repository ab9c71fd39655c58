package luci

import (
	"context"
	stderrors "errors"

	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
)

// Protocol fetches router data over one of the two supported transports.
type Protocol interface {
	Mode() Mode
	// FetchSnapshot performs one poll. The returned snapshot has no identity
	// merged unless the transport reports it alongside the metrics.
	FetchSnapshot(ctx context.Context, token string) (*Snapshot, error)
	FetchIdentity(ctx context.Context, token string) (DeviceIdentity, error)
}

// NewProtocol returns the implementation for mode.
func NewProtocol(mode Mode, c *Client) Protocol {
	if mode == ModeLegacy {
		return &LegacyProtocol{client: c}
	}
	return &UbusProtocol{client: c}
}

// Detect returns the protocol pinned for the client, probing the router the
// first time. Transport and auth failures are returned and nothing is pinned.
func Detect(ctx context.Context, c *Client, token string) (Protocol, error) {
	if mode, ok := c.cache.GetMode(); ok {
		return NewProtocol(mode, c), nil
	}

	mode, err := probe(ctx, c, token)
	if err != nil {
		return nil, err
	}
	c.cache.SetMode(mode)
	c.logger.Infof("Using %s protocol for %s", mode, c.creds.Host)
	return NewProtocol(mode, c), nil
}

// probe asks for the system board over ubus. Any answer with a payload means
// ubus. A missing endpoint, a non-JSON body, an empty payload or an rpcd
// that does not know the LuCI session means legacy.
func probe(ctx context.Context, c *Client, token string) (Mode, error) {
	replies, err := c.postUbus(ctx, token, []UbusCall{BoardCall()})
	if err != nil {
		if errors.IsAuth(err) {
			return "", err
		}
		var statusErr *StatusError
		if stderrors.As(err, &statusErr) || errors.HasCode(err, errors.ErrCodeParse) {
			return ModeLegacy, nil
		}
		return "", err
	}

	if accessDenied(replies) {
		return ModeLegacy, nil
	}
	if len(replies) > 0 {
		if raw, ok := replies[0].Payload(); ok {
			if board, ok := decodeObject(raw); ok && len(board) > 0 {
				return ModeUbus, nil
			}
		}
	}
	return ModeLegacy, nil
}

// UbusProtocol polls through one JSON-RPC batch.
type UbusProtocol struct {
	client *Client
}

func (p *UbusProtocol) Mode() Mode { return ModeUbus }

func (p *UbusProtocol) FetchSnapshot(ctx context.Context, token string) (*Snapshot, error) {
	replies, err := p.client.CallUbus(ctx, token, StatusCalls())
	if err != nil {
		return nil, err
	}
	snap := ParseUbusBatch(replies)
	snap.Mode = ModeUbus
	snap.FetchedAt = p.client.now()
	return snap, nil
}

func (p *UbusProtocol) FetchIdentity(ctx context.Context, token string) (DeviceIdentity, error) {
	replies, err := p.client.CallUbus(ctx, token, []UbusCall{BoardCall()})
	if err != nil {
		return DeviceIdentity{}, err
	}
	if len(replies) == 0 {
		return DeviceIdentity{}.WithDefaults(), nil
	}
	raw, ok := replies[0].Payload()
	if !ok {
		return DeviceIdentity{}.WithDefaults(), nil
	}
	return ParseBoard(raw), nil
}

// LegacyProtocol polls the JSON status page and scrapes the overview page.
type LegacyProtocol struct {
	client *Client
}

func (p *LegacyProtocol) Mode() Mode { return ModeLegacy }

func (p *LegacyProtocol) FetchSnapshot(ctx context.Context, token string) (*Snapshot, error) {
	body, err := p.client.GetPage(ctx, token, StatusPagePath)
	if err != nil {
		return nil, err
	}
	snap, err := ParseLegacyStatus([]byte(body))
	if err != nil {
		return nil, errors.NewConnectionError("unexpected legacy status response", err)
	}
	snap.Mode = ModeLegacy
	snap.FetchedAt = p.client.now()
	return snap, nil
}

func (p *LegacyProtocol) FetchIdentity(ctx context.Context, token string) (DeviceIdentity, error) {
	page, err := p.client.GetPage(ctx, token, OverviewPagePath)
	if err != nil {
		return DeviceIdentity{}, err
	}
	return ParseOverview(page), nil
}
