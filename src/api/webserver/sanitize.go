package webserver

import "github.com/microcosm-cc/bluemonday"

// newSanitizer builds the policy applied to user-supplied text before it is
// stored. Plain formatting survives, markup that can execute does not.
func newSanitizer() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	p.AllowElements("ul", "ol", "li")
	return p
}
