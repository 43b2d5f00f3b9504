package services

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// mentionPattern matches the structured mention token <@user_id:username>
// produced by the comment editor.
var mentionPattern = regexp.MustCompile(`<@(\d+):([^>]+)>`)

// RenderMentions turns mention tokens into profile links and HTML-escapes
// everything else. Pure text transform, safe against injection: user content
// never reaches the output unescaped.
func RenderMentions(content string) string {
	var out strings.Builder
	last := 0

	for _, m := range mentionPattern.FindAllStringSubmatchIndex(content, -1) {
		out.WriteString(html.EscapeString(content[last:m[0]]))

		userID := content[m[2]:m[3]]
		username := content[m[4]:m[5]]
		out.WriteString(fmt.Sprintf(
			`<a href="/user/profile/%s" class="text-blue-400 hover:underline">@%s</a>`,
			userID, html.EscapeString(username)))

		last = m[1]
	}
	out.WriteString(html.EscapeString(content[last:]))

	return out.String()
}
