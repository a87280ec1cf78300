// Package http provides the JSON API handlers and middleware of the room
// booking service.
//
// The router exposes the following endpoints:
//   - POST /api/register: creates an account and profile. Body:
//     {"email","password","name","role"}. Responds like POST /api/sessions.
//   - POST /api/sessions: signs in. Body: {"email","password"}. Response:
//     {"token","expires_at","user":{...}} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /api/sessions/current: signs out the session presented in the
//     Authorization header or cookie. Returns 204 and clears the cookie.
//   - GET /api/me: the current session state and profile.
//   - GET /api/identity/events: websocket stream of sign-in and sign-out events
//     for the caller.
//   - GET /api/users: the user directory ordered by name.
//   - GET /api/rooms, POST /api/rooms, GET|PUT|DELETE /api/rooms/{id}: the room
//     catalog exchanging `roomDTO`. Mutations require the admin role; deleting a
//     room deletes its bookings first.
//   - GET /api/rooms/{id}/bookings, POST /api/rooms/{id}/bookings,
//     GET|PUT|DELETE /api/bookings/{id}: bookings exchanging `bookingDTO`. Only
//     the author edits a booking; the author or an admin deletes it.
//   - GET /healthz and GET /metrics.
//
// Rejected bookings answer 422 with a `reason` and a localized message.
package http
