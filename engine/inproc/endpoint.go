package inproc

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/workspace-9/zsock/native"
)

// endpoint is a parsed "transport://address" string. key identifies the
// address a connect must name to reach a bind.
type endpoint struct {
	raw       string
	transport string
	address   string
	key       string
	resolved  string
}

// transport validates addresses of one scheme. roles lists the socket types
// that may use it; nil allows every type.
type transport struct {
	roles   []native.SocketType
	resolve func(c *Context, address string, bind bool) (key, resolved string, err error)
}

var transports = map[string]transport{
	"inproc": {resolve: resolveInproc},
	"ipc":    {resolve: resolveIPC},
	"tcp":    {resolve: resolveTCP("tcp")},
	"udp":    {roles: []native.SocketType{native.Radio, native.Dish}, resolve: resolveTCP("udp")},
}

func parseEndpoint(c *Context, typ native.SocketType, raw string, bind bool) (endpoint, error) {
	scheme, address, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" || address == "" {
		return endpoint{}, native.EINVAL
	}

	tp, ok := transports[scheme]
	if !ok {
		return endpoint{}, native.EPROTONOSUPPORT
	}
	if !roleAllowed(tp.roles, typ) {
		return endpoint{}, native.ENOCOMPATPROTO
	}

	key, resolved, err := tp.resolve(c, address, bind)
	if err != nil {
		return endpoint{}, err
	}
	return endpoint{
		raw:       raw,
		transport: scheme,
		address:   address,
		key:       scheme + ":" + key,
		resolved:  scheme + "://" + resolved,
	}, nil
}

func roleAllowed(roles []native.SocketType, typ native.SocketType) bool {
	if roles == nil {
		return true
	}
	for _, role := range roles {
		if role == typ {
			return true
		}
	}
	return false
}

func resolveInproc(c *Context, address string, bind bool) (string, string, error) {
	return address, address, nil
}

func resolveIPC(c *Context, address string, bind bool) (string, string, error) {
	if address != "*" {
		return address, address, nil
	}
	if !bind {
		return "", "", native.EINVAL
	}
	path := fmt.Sprintf("/tmp/zsock-inproc-%d", c.nextEphemeral())
	return path, path, nil
}

var localHosts = map[string]bool{
	"*":         true,
	"0.0.0.0":   true,
	"127.0.0.1": true,
	"localhost": true,
	"::":        true,
	"::1":       true,
}

// resolveTCP keys tcp and udp addresses by port only: every bound address
// is local, so any host that reaches the port reaches the bind.
func resolveTCP(scheme string) func(*Context, string, bool) (string, string, error) {
	return func(c *Context, address string, bind bool) (string, string, error) {
		host, port, err := net.SplitHostPort(address)
		if err != nil || host == "" || port == "" {
			return "", "", native.EINVAL
		}

		if port == "*" || port == "0" {
			if !bind {
				return "", "", native.EINVAL
			}
			port = strconv.Itoa(c.nextEphemeral())
		} else if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
			return "", "", native.EINVAL
		}

		if bind {
			if !localHosts[host] {
				if net.ParseIP(host) != nil {
					return "", "", native.EADDRNOTAVAIL
				}
				return "", "", native.ENODEV
			}
			if host == "*" {
				host = "0.0.0.0"
			}
		}
		return port, net.JoinHostPort(host, port), nil
	}
}
