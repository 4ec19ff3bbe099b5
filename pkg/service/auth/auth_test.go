package auth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const testResource = "arn:aws:execute-api:us-east-1:123456789012:abcdef/prod/GET/urls"

func TestAuthorize(t *testing.T) {
	t.Run("matching token allows", func(t *testing.T) {
		decision := Authorize("sekret", "sekret", testResource)
		require.Equal(t, "user", decision.PrincipalID)
		require.NotNil(t, decision.PolicyDocument)
		require.Len(t, decision.PolicyDocument.Statement, 1)
		require.Equal(t, EffectAllow, decision.PolicyDocument.Statement[0].Effect)
		require.Equal(t, testResource, decision.PolicyDocument.Statement[0].Resource)
	})

	t.Run("mismatched token denies", func(t *testing.T) {
		for _, token := range []string{"wrong", "SEKRET", "sekret ", " "} {
			decision := Authorize(token, "sekret", testResource)
			require.NotNil(t, decision.PolicyDocument)
			require.Equal(t, EffectDeny, decision.PolicyDocument.Statement[0].Effect)
		}
	})

	t.Run("absent token denies", func(t *testing.T) {
		decision := Authorize("", "sekret", testResource)
		require.Equal(t, "user", decision.PrincipalID)
		require.NotNil(t, decision.PolicyDocument)
		require.Equal(t, EffectDeny, decision.PolicyDocument.Statement[0].Effect)
	})

	t.Run("empty expected token denies everything", func(t *testing.T) {
		decision := Authorize("anything", "", testResource)
		require.Equal(t, EffectDeny, decision.PolicyDocument.Statement[0].Effect)
	})

	t.Run("missing resource yields no policy document", func(t *testing.T) {
		decision := Authorize("sekret", "sekret", "")
		require.Equal(t, "user", decision.PrincipalID)
		require.Nil(t, decision.PolicyDocument)

		b, err := json.Marshal(decision)
		require.NoError(t, err)
		require.JSONEq(t, `{"principalId":"user"}`, string(b))
	})

	t.Run("policy document wire shape", func(t *testing.T) {
		decision := Authorize("sekret", "sekret", testResource)
		b, err := json.Marshal(decision)
		require.NoError(t, err)
		require.JSONEq(t, `{
			"principalId": "user",
			"policyDocument": {
				"Version": "2012-10-17",
				"Statement": [{
					"Action": "execute-api:Invoke",
					"Effect": "Allow",
					"Resource": "`+testResource+`"
				}]
			}
		}`, string(b))
	})

	t.Run("idempotent for identical inputs", func(t *testing.T) {
		first := Authorize("tok", "sekret", testResource)
		second := Authorize("tok", "sekret", testResource)
		require.Equal(t, first, second)
	})
}
