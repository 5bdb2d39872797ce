package client_test

import (
	"git.sr.ht/~jakintosh/loginhandler/internal/testutil"
	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

func tokensForAudience(audience string) (tokens.Validator, error) {
	return tokens.InitClient(testutil.TestSecret, testutil.TestIssuer, audience)
}
