// Package http provides HTTP handlers and middleware for the clinic portal API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"role","identifier","password"}.
//     Response: {"token","expires_at","principal":{"role","user_id","name"}} with
//     the token also surfaced via the `X-Session-Token` header and a
//     `session_token` cookie.
//   - POST /logout: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content and clears
//     the cookie.
//   - GET /doctors, GET /doctors/{id}: the read-only doctor directory.
//   - GET /doctors/{id}/slots?date=YYYY-MM-DD: open slot times for one doctor
//     on one date, in shift order.
//   - POST /patients: public patient self-registration. GET /patients,
//     GET /patients/lookup?phone=, GET/PUT/DELETE /patients/{id}: registry
//     management exchanging the `patientDTO` payload defined in
//     patient_handler.go.
//   - GET /appointments, POST /appointments, GET/PUT/DELETE /appointments/{id},
//     PUT /appointments/{id}/status: booking endpoints exchanging the
//     `appointmentDTO` payload defined in appointment_handler.go.
//   - POST /appointments/proposals, POST /appointments/proposals/{token}/commit:
//     the two-phase booking flow. A proposal validates the slot and returns a
//     short-lived token; committing re-checks availability before creating the
//     record.
//   - GET /dashboard/admin, GET /dashboard/doctor, GET /dashboard/patient:
//     role-specific aggregates defined in dashboard_handler.go.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
