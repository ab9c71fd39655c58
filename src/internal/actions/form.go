package actions

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/valyala/fasttemplate"
	"golang.org/x/net/html"
)

var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`token:\s*'([a-f0-9]+)'`),
	regexp.MustCompile(`name="token"\s+value="([a-f0-9]+)"`),
}

// DefaultIgnoredValues are button labels that must not be resubmitted as form data.
var DefaultIgnoredValues = []string{
	"删除所有订阅节点",
	"删除已订阅的节点",
	"手动订阅",
	"删除",
	"添加",
	"保存&应用",
	"Delete",
	"Add",
	"Save & Apply",
	"Save",
	"Reset",
	"Apply",
}

// ScrapeToken returns the LuCI form token embedded in page, trying the
// inline script form before the hidden input form.
func ScrapeToken(page string) string {
	for _, re := range tokenPatterns {
		if m := re.FindStringSubmatch(page); m != nil {
			return m[1]
		}
	}
	return ""
}

// HarvestForm collects the named input values of page. Buttons and values
// found in ignore are dropped.
func HarvestForm(page string, ignore map[string]struct{}) url.Values {
	form := url.Values{}
	z := html.NewTokenizer(strings.NewReader(page))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return form
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "input" {
				continue
			}
			var name, value, typ string
			for _, attr := range tok.Attr {
				switch attr.Key {
				case "name":
					name = attr.Val
				case "value":
					value = attr.Val
				case "type":
					typ = strings.ToLower(attr.Val)
				}
			}
			if name == "" || typ == "submit" || typ == "button" || typ == "reset" || typ == "image" {
				continue
			}
			if _, skip := ignore[value]; skip {
				continue
			}
			form.Set(name, value)
		}
	}
}

// RenderFields expands {{token}} in every field value. Unknown placeholders
// are left as they are.
func RenderFields(fields map[string]string, token string) url.Values {
	vars := map[string]interface{}{"token": token}
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, fasttemplate.ExecuteStringStd(v, "{{", "}}", vars))
	}
	return form
}

func ignoreSet(extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(DefaultIgnoredValues)+len(extra))
	for _, v := range DefaultIgnoredValues {
		set[v] = struct{}{}
	}
	for _, v := range extra {
		set[v] = struct{}{}
	}
	return set
}
