// Package auth authenticates companies and influencers.
//
// Two modes are supported:
//   - "none": no authentication; writes name the acting account in the request body
//   - "local": accounts log in with email and password; API writes need a
//     Bearer token, website writes need a session
//
// # Configuration
//
//	AUTH_MODE=local
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Generated at startup if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true
//
// # Usage
//
//	svc := auth.NewService(companyRepo, influencerRepo, cfg.Auth)
//	mw := auth.NewMiddleware(svc, sessions, cfg.Auth)
//	router.Use(mw.Handler())
//
// Handlers read the acting account with auth.GetAccountID and auth.GetRole.
package auth
