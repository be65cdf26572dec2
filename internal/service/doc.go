// Package service contains the application use cases. It coordinates the
// domain entities, the store interfaces and the auth primitives without
// depending on any specific infrastructure.
package service
