package main

import (
	"bytes"
	"embed"
	"errors"
	"io/fs"
	"path"
	"text/template"
)

//go:embed tmpl
var tmplFS embed.FS

// templ renders the default config files
type templ struct {
	data map[string]interface{}
}

func newTempl(data map[string]interface{}) *templ {
	return &templ{data: data}
}

// get renders the named template. Config names without a template of
// their own use the development one.
func (t *templ) get(name string) ([]byte, error) {
	v, err := tmplFS.ReadFile(path.Join("tmpl", name))
	if errors.Is(err, fs.ErrNotExist) {
		v, err = tmplFS.ReadFile(path.Join("tmpl", "dev.yml"))
	}
	if err != nil {
		return nil, err
	}

	tm, err := template.New(name).Parse(string(v))
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	if err := tm.Execute(&b, t.data); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
