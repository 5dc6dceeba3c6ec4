/*
Package authsdk provides a client SDK for the tenant gate access service.

# Overview

The service guards a multi-tenant application: it throttles logins and locks
accounts, gates sessions behind two-factor verification, enforces licenses,
and lets administrators terminate the sessions of other users.

The package is organized around two types:

  - SDKClient: unauthenticated operations (login, bootstrap, health)
  - Session: operations on behalf of a logged in user

	client := authsdk.NewSDKClient("https://access.example.com")

	session, err := client.Login(ctx, "user@example.com", "password")
	if err != nil {
		var apiErr *authsdk.APIError
		if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeAccountLocked {
			fmt.Println("locked, retry in", apiErr.RetryAfter)
		}
		return err
	}

# Two-Factor Verification

Accounts with two-factor enabled get a session that must verify before it
can reach verified-only routes (license details, recovery codes):

	if session.TwoFactorRequired() {
		res, err := session.VerifyTwoFactor(ctx, otpCode, false)
		if err == nil && !res.Verified {
			fmt.Println("verification failed:", res.Reason)
		}
	}

Routes that need a verified session answer 403 with code
two_factor_required until then.

# Session Termination

An administrator can terminate every session of a user. The server revokes
the sessions first, so the old token stops working immediately, and then
pushes a session_terminated event to live clients. WatchSession turns that
event into a callback:

	go func() {
		err := session.WatchSession(ctx, func(ev authsdk.SessionEvent) {
			fmt.Println("signed out by an administrator:", ev.Reason)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Println("event stream:", err)
		}
	}()

Delivery is best effort. A client that was offline when the event was sent
finds out on its next request, which fails with invalid_token.

# Error Handling

Every non-2xx response is returned as an *APIError carrying the HTTP status,
a machine readable Code and, for 429 responses, RetryAfter.

# Thread Safety

Sessions are safe for concurrent use.
*/
package authsdk
