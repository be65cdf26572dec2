// Package storage stores static files, uploaded media and database backups
// on the local filesystem or in an S3-compatible bucket.
package storage
