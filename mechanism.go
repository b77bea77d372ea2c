package zsock

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"

	"github.com/workspace-9/zsock/native"
)

// Mechanism selects the security mechanism of new connections. The
// implementations are Null, PlainClient, PlainServer, CurveClient and
// CurveServer.
type Mechanism interface {
	// Name as used in the ZMTP greeting.
	Name() string
	apply(sock native.Socket) (native.Option, error)
}

// Null disables authentication and encryption.
type Null struct{}

func (Null) Name() string { return "NULL" }

func (Null) apply(sock native.Socket) (native.Option, error) {
	return native.PlainServer, sock.SetBool(native.PlainServer, false)
}

// PlainClient authenticates with a clear text username and password.
type PlainClient struct {
	Username string
	Password string
}

func (PlainClient) Name() string { return "PLAIN" }

func (m PlainClient) apply(sock native.Socket) (native.Option, error) {
	if err := sock.SetString(native.PlainUsername, m.Username); err != nil {
		return native.PlainUsername, err
	}
	return native.PlainPassword, sock.SetString(native.PlainPassword, m.Password)
}

// PlainServer accepts PLAIN clients. Credentials are checked by the ZAP
// handler serving ZapDomain, if any.
type PlainServer struct {
	ZapDomain string
}

func (PlainServer) Name() string { return "PLAIN" }

func (m PlainServer) apply(sock native.Socket) (native.Option, error) {
	if err := sock.SetBool(native.PlainServer, true); err != nil {
		return native.PlainServer, err
	}
	if m.ZapDomain == "" {
		return native.ZapDomain, nil
	}
	return native.ZapDomain, sock.SetString(native.ZapDomain, m.ZapDomain)
}

// CurveKeyPair is a Z85 encoded CURVE key pair.
type CurveKeyPair struct {
	Public string
	Secret string
}

// CurveClient encrypts connections to a server whose public key is
// ServerKey.
type CurveClient struct {
	Client    CurveKeyPair
	ServerKey string
}

func (CurveClient) Name() string { return "CURVE" }

func (m CurveClient) apply(sock native.Socket) (native.Option, error) {
	if err := sock.SetString(native.CurveServerKey, m.ServerKey); err != nil {
		return native.CurveServerKey, err
	}
	if err := sock.SetString(native.CurvePublicKey, m.Client.Public); err != nil {
		return native.CurvePublicKey, err
	}
	return native.CurveSecretKey, sock.SetString(native.CurveSecretKey, m.Client.Secret)
}

// CurveServer accepts CURVE clients using its secret key.
type CurveServer struct {
	Secret    string
	ZapDomain string
}

func (CurveServer) Name() string { return "CURVE" }

func (m CurveServer) apply(sock native.Socket) (native.Option, error) {
	if err := sock.SetBool(native.CurveServer, true); err != nil {
		return native.CurveServer, err
	}
	if err := sock.SetString(native.CurveSecretKey, m.Secret); err != nil {
		return native.CurveSecretKey, err
	}
	if m.ZapDomain == "" {
		return native.ZapDomain, nil
	}
	return native.ZapDomain, sock.SetString(native.ZapDomain, m.ZapDomain)
}

// NewCurveKeyPair generates a fresh key pair.
func NewCurveKeyPair() (CurveKeyPair, error) {
	var sec [32]byte
	if _, err := io.ReadFull(rand.Reader, sec[:]); err != nil {
		return CurveKeyPair{}, fmt.Errorf("reading random secret: %w", err)
	}
	pub, err := curve25519.X25519(sec[:], curve25519.Basepoint)
	if err != nil {
		return CurveKeyPair{}, err
	}

	var pair CurveKeyPair
	if pair.Public, err = z85Encode(pub); err != nil {
		return CurveKeyPair{}, err
	}
	if pair.Secret, err = z85Encode(sec[:]); err != nil {
		return CurveKeyPair{}, err
	}
	return pair, nil
}

// CurvePublicKey derives the public key of a Z85 encoded secret key.
func CurvePublicKey(secret string) (string, error) {
	sec, err := decodeCurveKey(secret)
	if err != nil {
		return "", err
	}
	pub, err := curve25519.X25519(sec, curve25519.Basepoint)
	if err != nil {
		return "", err
	}
	return z85Encode(pub)
}

func decodeCurveKey(key string) ([]byte, error) {
	if len(key) != 40 {
		return nil, fmt.Errorf("curve key must be 40 z85 characters, got %d", len(key))
	}
	raw, err := z85Decode(key)
	if err != nil {
		return nil, fmt.Errorf("decoding curve key: %w", err)
	}
	return raw, nil
}

func validateMechanism(m Mechanism) error {
	var keys []string
	switch m := m.(type) {
	case nil:
		return fmt.Errorf("nil mechanism")
	case CurveClient:
		keys = []string{m.Client.Public, m.Client.Secret, m.ServerKey}
	case CurveServer:
		keys = []string{m.Secret}
	}
	for _, key := range keys {
		if _, err := decodeCurveKey(key); err != nil {
			return err
		}
	}
	return nil
}
