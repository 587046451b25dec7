package access

import (
	"fmt"
	"net"
	"sort"
	"strconv"

	"github.com/maksimkurb/hostgate/src/internal/config"
	"github.com/maksimkurb/hostgate/src/internal/errors"
)

// Policy answers whether a client identifier may reach the route table.
type Policy interface {
	IsBanned(remoteID string) bool
}

// Source is a key/value configuration view. *config.Config implements it.
type Source interface {
	Get(key string) (any, bool)
}

// Host holds the listen address and the set of banned client identifiers.
// It is immutable after construction and safe for concurrent use.
type Host struct {
	bindAddress string
	port        uint16
	banned      map[string]struct{}
}

// NewHost validates the port (1-65535) and builds a Host. An error is
// always an *errors.Error with code CONFIG_ERROR.
func NewHost(bindAddress string, port int, bannedIDs []string) (*Host, error) {
	if port < 1 || port > 65535 {
		return nil, errors.NewConfigError(fmt.Sprintf("port %d is out of range 1-65535", port), nil)
	}

	banned := make(map[string]struct{}, len(bannedIDs))
	for _, id := range bannedIDs {
		banned[id] = struct{}{}
	}

	return &Host{
		bindAddress: bindAddress,
		port:        uint16(port),
		banned:      banned,
	}, nil
}

// NewHostFromSource reads "ip", "port" and the optional "bannedIds" from src.
func NewHostFromSource(src Source) (*Host, error) {
	rawIP, ok := src.Get(config.KeyIP)
	if !ok {
		return nil, errors.NewConfigError("missing required key \"ip\"", nil)
	}
	ip, ok := rawIP.(string)
	if !ok {
		return nil, errors.NewConfigError(fmt.Sprintf("key \"ip\" must be a string, got %T", rawIP), nil)
	}

	rawPort, ok := src.Get(config.KeyPort)
	if !ok {
		return nil, errors.NewConfigError("missing required key \"port\"", nil)
	}
	port, err := toPort(rawPort)
	if err != nil {
		return nil, err
	}

	var banned []string
	if rawBanned, ok := src.Get(config.KeyBannedIDs); ok {
		switch v := rawBanned.(type) {
		case []string:
			banned = v
		case []any:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, errors.NewConfigError(fmt.Sprintf("key \"bannedIds\" must contain strings, got %T", item), nil)
				}
				banned = append(banned, s)
			}
		default:
			return nil, errors.NewConfigError(fmt.Sprintf("key \"bannedIds\" must be a list of strings, got %T", rawBanned), nil)
		}
	}

	return NewHost(ip, port, banned)
}

func toPort(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint:
		return int(v), nil
	case string:
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, errors.NewConfigError(fmt.Sprintf("key \"port\" is not a number: %q", v), err)
		}
		return port, nil
	default:
		return 0, errors.NewConfigError(fmt.Sprintf("key \"port\" must be a number, got %T", raw), nil)
	}
}

// IsBanned reports whether remoteID is in the banned set.
func (h *Host) IsBanned(remoteID string) bool {
	_, ok := h.banned[remoteID]
	return ok
}

func (h *Host) BindAddress() string {
	return h.bindAddress
}

func (h *Host) Port() uint16 {
	return h.port
}

// Address returns host:port suitable for net.Listen.
func (h *Host) Address() string {
	return net.JoinHostPort(h.bindAddress, strconv.Itoa(int(h.port)))
}

// BannedIDs returns the banned identifiers sorted.
func (h *Host) BannedIDs() []string {
	ids := make([]string, 0, len(h.banned))
	for id := range h.banned {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
