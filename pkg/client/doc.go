// Package client integrates backend applications with a login handler.
//
// A login handler exchanges identity provider tokens for short lived
// session tokens signed with a secret it shares with the backends it
// serves. This package does both halves of that from the backend side:
// it performs the exchange, and it verifies the resulting session tokens
// on incoming requests without calling the login handler again.
//
// # Quick Start
//
//	validator, err := tokens.InitClient(
//	    sharedSecret,           // the login handler's signature_key
//	    "login.example.com",    // the login handler's token_issuer
//	    "myapp",                // this app's audience
//	)
//	if err != nil {
//	    return err
//	}
//	auth := client.New("https://login.example.com", validator)
//
// # Exchanging Tokens
//
//	session, err := auth.Exchange(ctx, googleAccessToken)
//	switch {
//	case errors.Is(err, client.ErrNewUser):
//	    // valid identity, no local account yet
//	case errors.Is(err, client.ErrIdentityRejected):
//	    // the identity provider refused the token
//	case err != nil:
//	    // transport or protocol failure
//	}
//	auth.SetSessionCookie(w, session)
//
// # Protecting Routes
//
//	mux.Handle("/private", auth.RequireSession(http.HandlerFunc(
//	    func(w http.ResponseWriter, r *http.Request) {
//	        session, _ := client.SessionFromContext(r.Context())
//	        fmt.Fprintf(w, "hello, user %s", session.UID())
//	    },
//	)))
//
// Session tokens are read from an "Authorization: Bearer" header first and
// the session cookie second.
package client
