package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMentions(t *testing.T) {
	t.Run("replaces mention tokens with profile links", func(t *testing.T) {
		got := RenderMentions("Привет <@7:ivan>, посмотри задачу")
		assert.Equal(t,
			`Привет <a href="/user/profile/7" class="text-blue-400 hover:underline">@ivan</a>, посмотри задачу`,
			got)
	})

	t.Run("handles multiple mentions", func(t *testing.T) {
		got := RenderMentions("<@1:a> и <@2:b>")
		assert.Contains(t, got, `/user/profile/1`)
		assert.Contains(t, got, `/user/profile/2`)
		assert.Contains(t, got, `@a`)
		assert.Contains(t, got, `@b`)
	})

	t.Run("escapes surrounding HTML", func(t *testing.T) {
		got := RenderMentions(`<script>alert(1)</script> <@3:x>`)
		assert.NotContains(t, got, "<script>")
		assert.Contains(t, got, "&lt;script&gt;")
		assert.Contains(t, got, `/user/profile/3`)
	})

	t.Run("escapes a hostile username", func(t *testing.T) {
		got := RenderMentions(`<@4:<img src=x>>`)
		assert.NotContains(t, got, "<img")
	})

	t.Run("plain text passes through escaped only", func(t *testing.T) {
		assert.Equal(t, "просто текст", RenderMentions("просто текст"))
	})
}
