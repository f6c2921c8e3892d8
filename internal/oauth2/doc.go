// Package oauth2 manages the OAuth 2.0 credentials used to call the streaming API.
//
// Two lifecycles live here:
//
//   - UserManager holds user-delegated tokens obtained through the
//     authorization-code flow. Records are kept per session in a cache.Store
//     and refreshed on demand once they pass their buffered expiry. A failed
//     refresh deletes the record; the caller sends the user back through consent.
//   - AppManager holds the single client-credentials token used for
//     catalogue lookups that need no user. Concurrent callers share one grant.
//
// Both derive expiry from the provider's expires_in minus SafetyBuffer, so a
// token is never handed out within five minutes of its real expiry.
//
//	provider := oauth2.NewProvider(oauth2.ProviderConfig{
//	    ClientID:     cfg.SpotifyClientID,
//	    ClientSecret: cfg.SpotifyClientSecret,
//	    RedirectURL:  cfg.SpotifyRedirectURL,
//	})
//	users := oauth2.NewUserManager(oauth2.NewUserTokenStore(store, nil), provider, factory)
//	client, err := users.GetAuthorizedClient(ctx, sessionID)
//	if err == nil && client == nil {
//	    // redirect to users.BuildAuthorizationURL(sessionID)
//	}
package oauth2
