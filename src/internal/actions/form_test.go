package actions

import (
	"net/url"
	"reflect"
	"testing"
)

func TestScrapeToken(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{name: "inline script", page: `L = new LuCI({ token: 'deadbeef01', media: '/luci-static' })`, want: "deadbeef01"},
		{name: "hidden input", page: `<input type="hidden" name="token" value="cafe42" />`, want: "cafe42"},
		{
			name: "inline wins",
			page: `<input type="hidden" name="token" value="bbbb" /><script>var x = { token: 'aaaa' }</script>`,
			want: "aaaa",
		},
		{name: "not hex", page: `token: 'XYZ'`, want: ""},
		{name: "none", page: `<html></html>`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScrapeToken(tt.page); got != tt.want {
				t.Errorf("ScrapeToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHarvestForm(t *testing.T) {
	page := `<form>
<input type="hidden" name="cbi.submit" value="1">
<input type="text" name="cbid.passwall.cfg1.url" value="https://example.com/sub">
<input name="cbid.passwall.cfg1.remark" value="SS" />
<input type="submit" name="cbi.apply" value="Save &amp; Apply">
<input type="button" name="cbid.passwall.cfg1._update" value="手动订阅">
<input type="hidden" name="cbid.passwall.cfg1._delete" value="删除">
<input type="hidden" name="cbid.custom" value="Skip me">
<input type="hidden" value="no name">
</form>`

	got := HarvestForm(page, ignoreSet([]string{"Skip me"}))
	want := url.Values{
		"cbi.submit":                {"1"},
		"cbid.passwall.cfg1.url":    {"https://example.com/sub"},
		"cbid.passwall.cfg1.remark": {"SS"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HarvestForm() = %v, want %v", got, want)
	}
}

func TestRenderFields(t *testing.T) {
	got := RenderFields(map[string]string{
		"token": "{{token}}",
		"mixed": "a{{token}}b",
		"plain": "1",
		"other": "{{unknown}}",
	}, "abc")

	want := url.Values{
		"token": {"abc"},
		"mixed": {"aabcb"},
		"plain": {"1"},
		"other": {"{{unknown}}"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RenderFields() = %v, want %v", got, want)
	}
}
