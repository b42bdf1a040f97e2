package contentservice

import "github.com/microcosm-cc/bluemonday"

func newContentPolicy() *bluemonday.Policy {
	return bluemonday.UGCPolicy()
}

// sanitizeContent strips scripts, handlers and anything else outside the UGC
// allowlist from editor HTML.
func (s *ContentService) sanitizeContent(content string) string {
	return s.policy.Sanitize(content)
}
