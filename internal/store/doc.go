// Package store defines the persistence interfaces for admin accounts and the
// errors every implementation maps its driver failures onto. The SQL
// implementation lives in internal/platform/database.
package store
