package facts

import "github.com/xhad/siteqa/pkg/classify"

// DetectVertical classifies a homepage by keyword.
func DetectVertical(html string) string {
	return classify.VerticalRules.Label(html)
}
