// Package appfs embeds the assets shipped with the binary:
// database migrations and email templates.
package appfs

import "embed"

//go:embed migrations assets/templates/email
var FS embed.FS
