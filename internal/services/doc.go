// Package services implements the HTTP side of the PullSense client.
//
// # Gateway
//
// [Gateway] has one method per backend endpoint. Every call takes a context and the minimal id,
// makes a single attempt and returns a typed error on failure:
//   - [shared.NetworkError] : no response (dial failure, timeout, reset)
//   - [shared.HTTPError] : non-2xx status; 401 unwraps to [shared.ErrUnauthorized], 404 to [shared.ErrNotFound]
//   - [shared.DecodeError] : the body was not the expected JSON
//
// All three unwrap to [shared.ErrAPIRequest]. Retrying is left to the query cache.
//
// # Authentication
//
// A [TokenStore] is consulted on every request. When it yields a token the request carries
// "Authorization: Bearer <token>", set through [oauth2.Token.SetAuthHeader]. A 401 is logged and
// returned as-is; the client never retries or redirects.
//
// # Raw access
//
// [APIService] performs raw GET and POST requests through the same transport and returns
// the undecoded response. The api subcommands use it for diagnostics.
package services
