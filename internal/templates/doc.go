// Package templates renders the HTML pages served by the admin console and
// the API docs using Handlebars templates.
//
// Templates are looked up in the configured TEMPLATE_DIRS first and then in
// the set embedded in the binary. Every page is rendered with a context built
// from the configured context processors:
//
//	debug     {{debug}} is true when DEBUG is on
//	request   {{request.path}}, {{request.method}}, {{request.host}}
//	auth      {{user}} is the signed-in account or null
//	messages  {{#each messages}}{{level}}: {{text}}{{/each}}
//
// Built-in helpers:
//   - static - prefix a path with STATIC_URL
//   - date - format a time in TIME_ZONE
//   - yesno - render a boolean as "yes" or "no"
package templates
