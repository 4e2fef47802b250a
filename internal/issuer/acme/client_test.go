package acme

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/acme"

	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
)

func TestMapErrorRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  *acme.Error
	}{
		{
			name: "by status code",
			err:  &acme.Error{StatusCode: http.StatusTooManyRequests, Detail: "too many certificates"},
		},
		{
			name: "by problem type",
			err: &acme.Error{
				StatusCode:  http.StatusForbidden,
				ProblemType: "urn:ietf:params:acme:error:rateLimited",
				Detail:      "slow down",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapError(tt.err, "order creation")

			var acmeErr *issuerDomain.AcmeError
			require.ErrorAs(t, mapped, &acmeErr)
			assert.Equal(t, issuerDomain.AcmeRateLimited, acmeErr.Category)
			assert.Equal(t, tt.err.Detail, acmeErr.Detail)
		})
	}
}

func TestMapErrorAccountProblems(t *testing.T) {
	wireErr := &acme.Error{
		StatusCode:  http.StatusBadRequest,
		ProblemType: "urn:ietf:params:acme:error:accountDoesNotExist",
		Detail:      "no account for key",
	}

	mapped := mapError(wireErr, "account lookup")

	var acmeErr *issuerDomain.AcmeError
	require.ErrorAs(t, mapped, &acmeErr)
	assert.Equal(t, issuerDomain.AcmeAccountNotReady, acmeErr.Category)
}

func TestMapErrorAuthorizationFailure(t *testing.T) {
	wireErr := &acme.AuthorizationError{
		URI: "https://ca.example/authz/1",
		Errors: []error{
			&acme.Error{
				ProblemType: "urn:ietf:params:acme:error:dns",
				Detail:      "no TXT record found",
			},
		},
	}

	mapped := mapError(wireErr, "authorization for example.com")

	var acmeErr *issuerDomain.AcmeError
	require.ErrorAs(t, mapped, &acmeErr)
	assert.Equal(t, issuerDomain.AcmeChallengeRejected, acmeErr.Category)
	assert.Equal(t, "no TXT record found", acmeErr.Detail)
}

func TestMapErrorOrderFailure(t *testing.T) {
	wireErr := &acme.OrderError{Status: acme.StatusInvalid}

	mapped := mapError(wireErr, "order readiness")

	var acmeErr *issuerDomain.AcmeError
	require.ErrorAs(t, mapped, &acmeErr)
	assert.Equal(t, issuerDomain.AcmeValidationFailed, acmeErr.Category)
	assert.Contains(t, acmeErr.Detail, "invalid")
}

func TestMapErrorTransport(t *testing.T) {
	mapped := mapError(errors.New("connection refused"), "order creation")

	var acmeErr *issuerDomain.AcmeError
	require.ErrorAs(t, mapped, &acmeErr)
	assert.Equal(t, issuerDomain.AcmeNetworkError, acmeErr.Category)
	assert.Contains(t, acmeErr.Detail, "order creation")
}

func TestMapErrorContextCancellation(t *testing.T) {
	mapped := mapError(context.Canceled, "order creation")
	assert.ErrorIs(t, mapped, context.Canceled)

	var acmeErr *issuerDomain.AcmeError
	assert.False(t, errors.As(mapped, &acmeErr))
}

func TestPickDNS01(t *testing.T) {
	authz := &acme.Authorization{
		Challenges: []*acme.Challenge{
			{Type: "http-01", URI: "https://ca.example/chal/1"},
			{Type: "dns-01", URI: "https://ca.example/chal/2", Token: "tok"},
		},
	}
	challenge := pickDNS01(authz)
	require.NotNil(t, challenge)
	assert.Equal(t, "dns-01", challenge.Type)

	authz.Challenges = authz.Challenges[:1]
	assert.Nil(t, pickDNS01(authz))
}
