// Package assets embeds the document templates shipped with the service.
package assets

import _ "embed"

// CVTemplateName is the file name of the default CV template.
const CVTemplateName = "cv_template.odt"

//go:embed templates/cv_template.odt
var CVTemplate []byte
