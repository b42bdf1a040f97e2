package mailservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	templates, err := NewTemplates()
	require.NoError(t, err)

	testCases := []struct {
		name         string
		templateName string
		data         any
		wantGreeting string
		expectedErr  bool
	}{
		{
			name:         "welcome with name",
			templateName: welcomeTemplate,
			data:         welcomeData{Name: "Tess", Email: "test@example.com"},
			wantGreeting: "Hi Tess,",
		},
		{
			name:         "welcome without name",
			templateName: welcomeTemplate,
			data:         welcomeData{Email: "test@example.com"},
			wantGreeting: "Hi,",
		},
		{
			name:         "unknown template",
			templateName: "invalid_template.html",
			expectedErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := templates.Render(tc.templateName, tc.data)
			assert.Equal(t, tc.expectedErr, err != nil)
			if err != nil {
				return
			}

			assert.Equal(t, "Welcome to Quillpost", got.Subject)
			assert.Contains(t, got.Plain, tc.wantGreeting)
			assert.Contains(t, got.Plain, "test@example.com")
			assert.Contains(t, got.HTML, "<p>"+tc.wantGreeting+"</p>")
		})
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	templates, err := NewTemplates()
	require.NoError(t, err)

	got, err := templates.Render(welcomeTemplate, welcomeData{Name: "<b>Eve</b>", Email: "eve@example.com"})
	require.NoError(t, err)

	assert.NotContains(t, got.HTML, "<b>Eve</b>")
	assert.Contains(t, got.HTML, "&lt;b&gt;Eve&lt;/b&gt;")
}
