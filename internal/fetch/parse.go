package fetch

import (
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/assetnote/kitefetch/pkg/http"
	"github.com/pkg/errors"
)

// ParseField splits a key=value form field. The value may be empty, the key may not
func ParseField(in string) (key, value string, err error) {
	sp := strings.SplitN(in, "=", 2)
	if len(sp) != 2 || sp[0] == "" {
		return "", "", fmt.Errorf("invalid field format, key=value expected: %s", in)
	}
	return sp[0], sp[1], nil
}

// ParseFormPart parses a multipart part in the curl -F syntax
//
//	name=value
//	name=@path
//	name=@path;type=text/plain
func ParseFormPart(in string) (http.FormPart, error) {
	name, value, err := ParseField(in)
	if err != nil {
		return http.FormPart{}, fmt.Errorf("invalid form format, name=value or name=@file expected: %s", in)
	}
	if !strings.HasPrefix(value, "@") {
		return http.FormPart{Name: name, Value: value}, nil
	}

	p := http.FormPart{Name: name}
	sp := strings.Split(value[1:], ";")
	p.FilePath = sp[0]
	for _, v := range sp[1:] {
		if strings.HasPrefix(v, "type=") {
			p.ContentType = strings.TrimPrefix(v, "type=")
		}
	}
	if p.FilePath == "" {
		return http.FormPart{}, fmt.Errorf("missing file path in form part: %s", in)
	}
	return p, nil
}

// ReadURLs reads one url per line. Blank lines and lines starting with # are skipped
func ReadURLs(r io.Reader) ([]string, error) {
	ret := make([]string, 0)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ret = append(ret, line)
	}
	if err := sc.Err(); err != nil {
		return ret, errors.Wrap(err, "failed to scan input")
	}
	return ret, nil
}

// LoadURLs reads the urls from filename, or from stdin when filename is "-"
func LoadURLs(filename string) ([]string, error) {
	if filename == "-" {
		return ReadURLs(os.Stdin)
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()
	return ReadURLs(f)
}

func readFile(filename string) ([]byte, error) {
	b, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", filename)
	}
	return b, nil
}
