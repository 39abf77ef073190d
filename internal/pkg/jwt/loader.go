// internal/pkg/jwt/loader.go
package jwt

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"
)

type Config struct {
	PrivPath string
	PubPath  string
	Issuer   string
	Audience string
	TTL      time.Duration
	KID      string
}

// LoadVerifier builds a verifier from the public key at cfg.PubPath.
func LoadVerifier(cfg Config) (*Verifier, error) {
	b, err := os.ReadFile(cfg.PubPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key from %s: %w", cfg.PubPath, err)
	}
	pub, err := ParseRSAPublicKeyPEM(b)
	if err != nil {
		return nil, err
	}
	return NewVerifier(pub, cfg.Issuer, cfg.Audience), nil
}

// LoadGenerator builds a generator from the private key at cfg.PrivPath.
func LoadGenerator(cfg Config) (*Generator, error) {
	b, err := os.ReadFile(cfg.PrivPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", cfg.PrivPath, err)
	}
	priv, err := ParseRSAPrivateKeyPEM(b)
	if err != nil {
		return nil, err
	}
	return NewGenerator(priv, cfg.Issuer, cfg.Audience, cfg.KID, cfg.TTL), nil
}

// ParseRSAPrivateKeyPEM accepts PKCS1 and PKCS8 encodings.
func ParseRSAPrivateKeyPEM(b []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in private key")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS8 private key: %w", err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("not an RSA private key")
		}
		return rsaKey, nil
	}
	return nil, fmt.Errorf("invalid PEM private key type: %s", block.Type)
}

// ParseRSAPublicKeyPEM accepts PKCS1 and PKIX encodings.
func ParseRSAPublicKeyPEM(b []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in public key")
	}

	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKIX public key: %w", err)
		}
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("not an RSA public key")
		}
		return rsaKey, nil
	}
	return nil, fmt.Errorf("invalid PEM public key type: %s", block.Type)
}
