// Package server provides HTTP routing, middleware, and the web entry points of the synchronizer.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Endpoints
//
//	GET /, /sync         start a sync run (one at a time) and acknowledge it
//	GET /status          JSON view of the active and last run
//	GET /authorize       redirect to the consent screen
//	GET /oauth/callback  complete the authorization code flow
//
// When no usable token exists, the sync endpoints render a page linking to the consent screen.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter against the [StateStore] (each state is single use),
// exchanges the authorization code, which also persists the token, and renders a success or failure page.
// `ytsync auth login` runs the same handler on a temporary server and waits on [OAuthHandler.Result].
package server
