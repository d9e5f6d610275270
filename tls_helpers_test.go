package postsocket

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"
)

// generateSelfSignedCert builds an in-memory ECDSA cert/key pair valid for
// 127.0.0.1, for exercising the quic stack's TLS requirement without
// touching the filesystem.
func generateSelfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating test key: %v", err)
	}
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("creating test certificate: %v", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}
}

// quicSecurityParams returns a SecurityParameters usable both to present
// cert as a quic server and to dial any quic peer without validating its
// certificate, for tests that need a real (not stubbed) TLS handshake.
func quicSecurityParams(cert tls.Certificate) SecurityParameters {
	return SecurityParameters{
		AllowedProtocols:   []string{"TLS1.3"},
		ServerCertificates: []tls.Certificate{cert},
		TrustVerification: func(TrustVerificationInfo) TrustVerificationResult {
			return TrustVerificationResult{Decision: Accept}
		},
	}
}

// freeLoopbackPort binds an ephemeral TCP port and releases it immediately,
// for handing a still-very-likely-free port number to a UDP/QUIC listener.
func freeLoopbackPort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("probing a free port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return uint16(port)
}
