// Package http provides the HTTP handlers and middleware for the callboard API.
//
// Every endpoint answers with the same envelope: {"success": bool} plus
// "data", "message", or "error" depending on the outcome.
//
//   - POST /api/auth/register, /api/auth/login, /api/auth/logout: account
//     lifecycle. Register and login return {"user","token","expires_at"};
//     the token is presented back as an Authorization bearer header.
//   - GET/POST /api/commands, GET /api/commands/stats,
//     PUT/DELETE /api/commands/{id}: call management for the dashboard,
//     always scoped to the authenticated tenant.
//   - GET/PUT /api/users/profile, GET/POST /api/users/counters,
//     PUT/DELETE /api/users/counters/{id}: profile and counter management.
//   - GET /api/display/{userId}[/ping|/stats|/ads] and
//     POST /api/display/{userId}/announce/{commandId}: unauthenticated
//     endpoints polled by the public display screens.
//
// Request and response DTOs live alongside their respective handlers.
package http
