/*
Package gatesdk provides a client SDK for services protected by tokengate.

# Overview

Every protected request carries three headers: the access token, the refresh
token and the subject id they were issued for. When the access token has
expired but the refresh token is still live, the server rotates both tokens
and returns the new pair in response headers with the same names. A Session
sends the three headers and adopts rotated tokens transparently.

	client := gatesdk.NewClient("https://api.example.com")

	// Tokens come from wherever the subject signed in.
	session := client.NewSession(subjectID, accessToken, refreshToken)

	who, err := session.WhoAmI(ctx)

	// Arbitrary requests to the protected service.
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, client.BaseURL+"/v1/things", nil)
	resp, err := session.Do(req)

	// Sign out.
	err = session.Revoke(ctx)

# Rotation

A refresh token is single use. If two requests present the same expired access
token concurrently, only one can rotate; the other is rejected. Session
serialises requests while its access token is expired so only one rotation is
ever in flight, and the requests queued behind it pick up the new pair.

# Errors

Rejected requests return *APIError with StatusCode 401 and Code
"unauthorized". The server never says which check failed.
*/
package gatesdk
