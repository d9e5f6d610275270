package postsocket

import "github.com/edgeengineer/transport-services-sub001/pkg/types"

// SecurityParameters and friends live in pkg/types; see endpoint.go for why.
type (
	SecurityParameters      = types.SecurityParameters
	TrustDecision           = types.TrustDecision
	TrustVerificationInfo   = types.TrustVerificationInfo
	TrustVerificationResult = types.TrustVerificationResult
	IdentityChallengeInfo   = types.IdentityChallengeInfo
	IdentityChallengeResult = types.IdentityChallengeResult
	TrustVerificationFunc   = types.TrustVerificationFunc
	IdentityChallengeFunc   = types.IdentityChallengeFunc
)

const (
	Accept               = types.Accept
	Reject               = types.Reject
	AcceptWithConditions = types.AcceptWithConditions
)

var NewSecurityParameters = types.NewSecurityParameters
