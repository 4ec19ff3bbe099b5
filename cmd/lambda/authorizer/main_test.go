package main

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"
	"github.com/vodworks/video-delivery/pkg/service/auth"
)

func TestHandler(t *testing.T) {
	handler := makeHandler("sekret")

	t.Run("allows matching token", func(t *testing.T) {
		decision, err := handler(context.Background(), events.APIGatewayCustomAuthorizerRequest{
			AuthorizationToken: "sekret",
			MethodArn:          "arn:aws:execute-api:us-east-1:123456789012:api/prod/GET/urls",
		})
		require.NoError(t, err)
		require.NotNil(t, decision.PolicyDocument)
		require.Equal(t, auth.EffectAllow, decision.PolicyDocument.Statement[0].Effect)
	})

	t.Run("denies mismatched token", func(t *testing.T) {
		decision, err := handler(context.Background(), events.APIGatewayCustomAuthorizerRequest{
			AuthorizationToken: "wrong",
			MethodArn:          "arn:aws:execute-api:us-east-1:123456789012:api/prod/GET/urls",
		})
		require.NoError(t, err)
		require.NotNil(t, decision.PolicyDocument)
		require.Equal(t, auth.EffectDeny, decision.PolicyDocument.Statement[0].Effect)
	})

	t.Run("missing method ARN yields principal-only decision", func(t *testing.T) {
		require.NotPanics(t, func() {
			decision, err := handler(context.Background(), events.APIGatewayCustomAuthorizerRequest{
				AuthorizationToken: "sekret",
			})
			require.NoError(t, err)
			require.Equal(t, "user", decision.PrincipalID)
			require.Nil(t, decision.PolicyDocument)
		})
	})
}
