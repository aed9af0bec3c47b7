// Package prompts renders text prompts for a generative text service.
package prompts

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/template"
)

var (
	ErrUnknownKind     = errors.New("unknown prompt kind")
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
)

type ParamType string

const (
	Text ParamType = "text"
	List ParamType = "list"
	Data ParamType = "data"
)

type Param struct {
	Name string    `json:"name"`
	Type ParamType `json:"type"`
}

type Prompt struct {
	Kind   string  `json:"kind"`
	Params []Param `json:"params"`
}

//go:embed templates/*.tmpl
var templatesFS embed.FS

var funcs = template.FuncMap{
	"join": func(v []string) string { return strings.Join(v, ", ") },
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

var catalog = []Prompt{
	{"productDescription", params(Text, "productName", "category", List, "features")},
	{"storeBranding", params(Text, "storeName", "niche", "targetAudience")},
	{"marketingCopy", params(Text, "product", "platform", "goal")},
	{"seoContent", params(Text, "topic", "contentType", List, "keywords")},
	{"productIdeas", params(Text, "niche", "budget", "audience")},
	{"storeDesign", params(Text, "brand", "style", List, "products")},
	{"socialStrategy", params(Text, "brand", List, "platforms", "goals")},
	{"emailMarketing", params(Text, "purpose", "audience", "product")},
	{"businessStrategy", params(Text, "businessType", "timeline", List, "goals")},
	{"contentCalendar", params(Text, "brand", "period", List, "themes")},
	{"pricingStrategy", params(Text, "product", "market", "competition")},
	{"businessAdvice", params(Text, "situation", "challenge", "goals")},
	{"analyticsInsights", params(Data, "data", Text, "timeframe", List, "goals")},
}

// params builds a param list where every name takes the type that
// precedes it.
func params(defs ...any) []Param {
	var (
		ps []Param
		t  ParamType
	)
	for _, s := range defs {
		switch v := s.(type) {
		case ParamType:
			t = v
		case string:
			ps = append(ps, Param{Name: v, Type: t})
		}
	}
	return ps
}

var templates = template.Must(
	template.New("prompts").Funcs(funcs).ParseFS(templatesFS, "templates/*.tmpl"),
)

// Catalog lists the available prompts.
func Catalog() []Prompt {
	return slices.Clone(catalog)
}

func lookup(kind string) (Prompt, bool) {
	i := slices.IndexFunc(catalog, func(p Prompt) bool { return p.Kind == kind })
	if i < 0 {
		return Prompt{}, false
	}
	return catalog[i], true
}

// Render fills the prompt of the given kind with args. Text arguments must
// be non-empty strings, list arguments accept a string or a list of strings.
func Render(kind string, args map[string]any) (string, error) {
	p, ok := lookup(kind)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	data := make(map[string]any, len(p.Params))
	for _, param := range p.Params {
		v, err := normalize(param, args[param.Name])
		if err != nil {
			return "", err
		}
		data[param.Name] = v
	}

	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, kind+".tmpl", data); err != nil {
		return "", fmt.Errorf("render %s: %w", kind, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func normalize(p Param, v any) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingArgument, p.Name)
	}

	switch p.Type {
	case Text:
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingArgument, p.Name)
		}
		return s, nil
	case List:
		return toList(p.Name, v)
	}
	return v, nil
}

func toList(name string, v any) ([]string, error) {
	switch l := v.(type) {
	case string:
		if l == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingArgument, name)
		}
		return []string{l}, nil
	case []string:
		if len(l) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingArgument, name)
		}
		return l, nil
	case []any:
		if len(l) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingArgument, name)
		}
		out := make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf(
					"%w: %s must be a list of strings", ErrInvalidArgument, name,
				)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf(
		"%w: %s must be a list of strings", ErrInvalidArgument, name,
	)
}
