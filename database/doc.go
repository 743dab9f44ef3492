// Package database provides connection management for the roster tables:
// driver and dialect selection, pool tuning, health checks, query logging
// hooks, SQL error classification, model registration, migrations and SQL
// seed files, all built on top of Bun.
package database
