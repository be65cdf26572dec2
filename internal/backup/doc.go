// Package backup dumps the database, uploads the dump to backup storage and
// prunes old backups.
package backup
