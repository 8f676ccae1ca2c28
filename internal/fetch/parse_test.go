package fetch

import (
	"strings"
	"testing"

	"github.com/assetnote/kitefetch/pkg/http"
	"github.com/stretchr/testify/assert"
)

func TestParseField(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		key     string
		value   string
		wantErr bool
	}{
		{name: "simple", in: "a=1", key: "a", value: "1"},
		{name: "empty value", in: "a=", key: "a", value: ""},
		{name: "equals in value", in: "q=a=b", key: "q", value: "a=b"},
		{name: "no equals", in: "abc", wantErr: true},
		{name: "empty key", in: "=abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, v, err := ParseField(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tt.key, k)
			assert.Equal(t, tt.value, v)
		})
	}
}

func TestParseFormPart(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    http.FormPart
		wantErr bool
	}{
		{name: "value", in: "user=bob", want: http.FormPart{Name: "user", Value: "bob"}},
		{name: "file", in: "doc=@/tmp/a.txt", want: http.FormPart{Name: "doc", FilePath: "/tmp/a.txt"}},
		{
			name: "file with type",
			in:   "doc=@a.json;type=application/json",
			want: http.FormPart{Name: "doc", FilePath: "a.json", ContentType: "application/json"},
		},
		{name: "missing path", in: "doc=@", wantErr: true},
		{name: "missing name", in: "=@a.txt", wantErr: true},
		{name: "garbage", in: "doc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormPart(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadURLs(t *testing.T) {
	in := strings.Join([]string{
		"http://one.example.com",
		"",
		"# comment",
		"   http://two.example.com/path  ",
		"\t",
	}, "\n")
	got, err := ReadURLs(strings.NewReader(in))
	assert.Nil(t, err)
	assert.Equal(t, []string{"http://one.example.com", "http://two.example.com/path"}, got)
}

func TestLoadURLsMissingFile(t *testing.T) {
	_, err := LoadURLs("/nonexistent/kitefetch/urls.txt")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}
