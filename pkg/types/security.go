package types

import (
	"crypto/tls"
	"crypto/x509"
)

// TrustDecision is the result of a trust-verification callback.
type TrustDecision int

const (
	// Accept the security association as presented.
	Accept TrustDecision = iota
	// Reject the security association.
	Reject
	// AcceptWithConditions accepts but records why, for audit/logging.
	AcceptWithConditions
)

// TrustVerificationInfo is passed to a SecurityParameters.TrustVerification
// callback, matching "trustVerification" fields.
type TrustVerificationInfo struct {
	Chain           []*x509.Certificate
	ServerName      string
	ProtocolVersion uint16
	CipherSuite     uint16
	OCSPResponse    []byte
	SCT             []byte
}

// TrustVerificationResult is the callback's return value.
type TrustVerificationResult struct {
	Decision TrustDecision
	Reasons  []string // populated when Decision == AcceptWithConditions
}

// IdentityChallengeInfo is passed to a SecurityParameters.IdentityChallenge
// callback, matching "identityChallenge" fields.
type IdentityChallengeInfo struct {
	AuthType            string
	AcceptableIssuers   [][]byte
	ServerName          string
	AvailableIdentities []tls.Certificate
}

// IdentityChallengeResult supplies the chosen identity, or a nil
// Certificate to decline.
type IdentityChallengeResult struct {
	Certificate *tls.Certificate
	Password    string
}

// TrustVerificationFunc is invoked synchronously on the verification
// thread; it must not block on network I/O.
type TrustVerificationFunc func(TrustVerificationInfo) TrustVerificationResult

// IdentityChallengeFunc is the callback type for a server's
// client-certificate challenge. TLSConfig does not wire it into the
// handshake, so this package never invokes it.
type IdentityChallengeFunc func(IdentityChallengeInfo) IdentityChallengeResult

// SecurityParameters bundles the TLS-ish configuration of a Connection. An
// empty AllowedProtocols means no TLS: plain transport is used.
type SecurityParameters struct {
	AllowedProtocols []string // e.g. "TLS1.3"; empty means no TLS
	ALPN             []string

	ServerCertificates []tls.Certificate
	ServerPrivateKeys  []interface{} // crypto.PrivateKey, paired positionally with ServerCertificates

	PrivateKeyPassword string

	TrustVerification TrustVerificationFunc
	IdentityChallenge IdentityChallengeFunc
}

// NewSecurityParameters returns an empty SecurityParameters (TLS disabled).
func NewSecurityParameters() SecurityParameters {
	return SecurityParameters{}
}

// Enabled reports whether this SecurityParameters requests TLS at all.
func (sp SecurityParameters) Enabled() bool {
	return len(sp.AllowedProtocols) > 0
}

// AddIdentity returns a copy of sp with c appended to ServerCertificates.
func (sp SecurityParameters) AddIdentity(c tls.Certificate) SecurityParameters {
	sp.ServerCertificates = append(append([]tls.Certificate{}, sp.ServerCertificates...), c)
	return sp
}

// TLSConfig builds a *tls.Config reflecting sp, for stacks that need one
// (pkg/stack's ip and quic variants).
func (sp SecurityParameters) TLSConfig(serverSide bool) (*tls.Config, error) {
	if !sp.Enabled() {
		return nil, nil
	}
	cfg := &tls.Config{
		NextProtos:   append([]string{}, sp.ALPN...),
		Certificates: append([]tls.Certificate{}, sp.ServerCertificates...),
	}
	if !serverSide {
		cfg.InsecureSkipVerify = sp.TrustVerification != nil
		if sp.TrustVerification != nil {
			f := sp.TrustVerification
			cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
				var chain []*x509.Certificate
				for _, raw := range rawCerts {
					if cert, err := x509.ParseCertificate(raw); err == nil {
						chain = append(chain, cert)
					}
				}
				res := f(TrustVerificationInfo{Chain: chain, ServerName: cfg.ServerName})
				if res.Decision == Reject {
					return newError(KindEstablishmentFailure, "trust verification rejected peer", nil)
				}
				return nil
			}
		}
	}
	return cfg, nil
}
