// Package artifact renders the files derived wholly from the project
// configuration: the runtime config module consumed by the web app, the
// Terraform variables file and the project README.
package artifact
