// Package pki loads the mutual TLS material shared by the gateway, the banks
// and the client. A single CA signs every certificate and each side requires
// the other to present one.
package pki

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
	"time"

	errorutils "github.com/KeyurIITGN/Strife/libs/errors"
	"google.golang.org/grpc/credentials"
)

// Config - file locations of the TLS material for one peer
type Config struct {
	CertFile string
	KeyFile  string
	CAFile   string
}

func (c Config) keyPair() (tls.Certificate, error) {
	certPEM, err := os.ReadFile(c.CertFile)
	if err != nil {
		return tls.Certificate{}, errorutils.Wrap(err, "could not read certificate")
	}
	keyPEM, err := os.ReadFile(c.KeyFile)
	if err != nil {
		return tls.Certificate{}, errorutils.Wrap(err, "could not read certificate key")
	}

	certificate, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, errorutils.Wrap(err, "could not parse x509 keypair")
	}

	x509Cert, err := x509.ParseCertificate(certificate.Certificate[0])
	if err != nil {
		return tls.Certificate{}, errorutils.Wrap(err, "could not parse certificate")
	}
	if time.Now().After(x509Cert.NotAfter) {
		return tls.Certificate{}, errorutils.ErrCertificateExpired
	}

	return certificate, nil
}

func (c Config) caPool() (*x509.CertPool, error) {
	caPEM, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, errorutils.Wrap(err, "could not read ca certificate")
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caPEM); !ok {
		return nil, errors.New("could not add ca certificate to pool")
	}
	return pool, nil
}

// ServerCredentials - transport credentials for a service requiring client certificates
func (c Config) ServerCredentials() (credentials.TransportCredentials, error) {
	certificate, err := c.keyPair()
	if err != nil {
		return nil, err
	}
	pool, err := c.caPool()
	if err != nil {
		return nil, err
	}

	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{certificate},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    pool,
		MinVersion:   tls.VersionTLS12,
	}), nil
}

// ClientCredentials - transport credentials for dialing a mutually authenticated peer
func (c Config) ClientCredentials() (credentials.TransportCredentials, error) {
	certificate, err := c.keyPair()
	if err != nil {
		return nil, err
	}
	pool, err := c.caPool()
	if err != nil {
		return nil, err
	}

	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{certificate},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS12,
	}), nil
}
