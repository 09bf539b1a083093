// Package reqctx carries request-scoped values through context.Context.
//
// HTTP middleware stores two values:
//
//   - RequestMeta, set for every request (request id, client ip, user agent).
//   - Session, set for authenticated requests. It is rebuilt on every request
//     from the profiles table, so a role change or deactivation takes effect
//     on the next call rather than when the token expires.
//
// Services read them with the typed getters:
//
//	sess, ok := reqctx.SessionFromContext(ctx)
//	if ok && sess.HasRole("admin") { ... }
//
// Keys are unexported so no other package can collide with them.
package reqctx
