// Package main provides the entry point for the AgencyDesk backend.
// It initializes and runs a web server using the Fiber framework that serves
// the JSON API consumed by the agency management front-end: team and role
// administration, client tracking, custom content requests, and sales
// validation. The application uses gorm for data persistence and a
// role/permission matrix to gate every operation.
package main
