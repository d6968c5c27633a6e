// Package http provides HTTP handlers and middleware for the clinic scheduler.
//
// The API router exposes:
//   - GET /agenda?start=&end= and GET /agenda.ics: the active plans expanded
//     into dated events between two inclusive calendar dates, sorted by start.
//   - GET|POST /plans, GET /plans.ics, GET|PATCH|DELETE /plans/{id}: weekly
//     plans. PATCH only changes the fields present in the body and is
//     rejected with 409 when the result overlaps another active plan of the
//     same professional.
//   - GET /occupancy: weekly load per professional.
//   - GET|POST /patients, PUT|DELETE /patients/{id}, and the same shape for
//     /professionals and /therapy-types. Listings accept limit, offset and
//     search query parameters.
//   - GET|POST /users, PUT|DELETE /users/{id}, POST /users/{id}/password.
//   - GET /semester/status and POST /backup-semester.
//
// The maintenance router exposes POST /daily-maintenance,
// POST /semester-maintenance and POST /backup-semester for schedulers.
//
// The caller is identified by the X-User-Id header, falling back to
// X-Invoker-User-Id. Validation failures answer 422, conflicts and records
// still in use 409, missing records 404 and store outages 502.
package http
