package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Travel &amp; Cities</title><style>body { color: red; }</style></head>
<body>
<!-- navigation -->
<header><nav>Home</nav></header>
<h1>Paris</h1>
<p>Paris is the <b>capital</b> of France.</p>
<script>alert("x")</script>
<p>Second line<br>wrapped here.</p>
<ul><li>Louvre</li><li>Orsay</li></ul>
</body>
</html>`

func TestSupportedMIMETypes(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"text/html", "application/xhtml+xml"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise(t *testing.T) {
	res, err := New().Normalise(context.Background(), &domain.RawDocument{
		FileName: "cities.html",
		Content:  []byte(page),
	})
	require.NoError(t, err)
	assert.Equal(t, "Travel & Cities", res.Title)
	assert.Equal(t,
		"Home\n\nParis\n\nParis is the capital of France.\n\nSecond line\nwrapped here.\n\nLouvre\n\nOrsay",
		res.Text)
}

func TestNormalise_TitleFallback(t *testing.T) {
	res, err := New().Normalise(context.Background(), &domain.RawDocument{
		FileName: "/srv/site/about_us.html",
		Content:  []byte("<p>About</p>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "about us", res.Title)
	assert.Equal(t, "About", res.Text)
}

func TestNormalise_Nil(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "hello", "hello"},
		{"entities", "a &lt;b&gt; &quot;c&quot;", `a <b> "c"`},
		{"collapses spaces", "<div>  lots   of\tspace </div>", "lots of space"},
		{"drops comments", "x<!-- hidden -->y", "xy"},
		{"drops svg", "<svg><path d='M0'/></svg>after", "after"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Strip(tt.input))
		})
	}
}
