// Package domain holds the account model shared by the store, the services
// and the admin console.
package domain
