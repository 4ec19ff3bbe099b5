// Package auth implements the token authorizer decision function. It is a
// pure function of the presented token, the configured expected token and the
// target resource - no network calls, no side effects.
package auth

import (
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("auth")

const (
	policyVersion = "2012-10-17"
	invokeAction  = "execute-api:Invoke"

	// principalID is a fixed placeholder - the authorizer identifies callers
	// by shared secret, not by individual principal.
	principalID = "user"
)

type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

type Statement struct {
	Action   string `json:"Action"`
	Effect   Effect `json:"Effect"`
	Resource string `json:"Resource"`
}

type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Decision is the authorizer response consumed by the enforcement layer. The
// policy document is omitted when no resource was identified, so there is
// never an ambient allow.
type Decision struct {
	PrincipalID    string          `json:"principalId"`
	PolicyDocument *PolicyDocument `json:"policyDocument,omitempty"`
}

// Authorize compares the presented bearer token against the expected token
// and produces an explicit Allow or Deny policy for the resource. An absent
// token, an empty expected token or any mismatch is a Deny - the function
// fails closed.
func Authorize(token string, expectedToken string, resource string) Decision {
	if token == "" {
		log.Warn("no authorization token received")
		return NewDecision(EffectDeny, resource)
	}
	if expectedToken != "" && token == expectedToken {
		return NewDecision(EffectAllow, resource)
	}
	log.Warn("authorization token mismatch")
	return NewDecision(EffectDeny, resource)
}

// NewDecision builds a decision for the fixed principal. The policy document
// is only attached when both an effect and a resource are present.
func NewDecision(effect Effect, resource string) Decision {
	decision := Decision{PrincipalID: principalID}
	if effect != "" && resource != "" {
		decision.PolicyDocument = &PolicyDocument{
			Version: policyVersion,
			Statement: []Statement{
				{
					Action:   invokeAction,
					Effect:   effect,
					Resource: resource,
				},
			},
		}
	}
	return decision
}
