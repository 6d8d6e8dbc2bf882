// Package render fills HTML templates with per-recipient values.
package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ryan-gang/mailqueue/internal/recipients"
)

const (
	TemplateExt = ".html"
	SubjectVar  = "subject"
)

var (
	ErrTemplateNotFound    = errors.New("template not found")
	ErrInvalidTemplateName = errors.New("invalid template name")
)

// Message is a rendered e-mail ready for the transport.
type Message struct {
	To       string
	Subject  string
	HTML     string
	Text     string
	Template string
}

// Renderer loads <Dir>/<template>.html on every call; templates edited
// between sends are picked up without a restart.
type Renderer struct {
	Dir            string
	DefaultSubject string
}

func New(dir, defaultSubject string) *Renderer {
	return &Renderer{Dir: dir, DefaultSubject: defaultSubject}
}

// Path returns the file backing template name.
func (r *Renderer) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTemplateName, name)
	}
	return filepath.Join(r.Dir, name+TemplateExt), nil
}

func (r *Renderer) Load(name string) (string, error) {
	path, err := r.Path(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return string(data), nil
}

func (r *Renderer) Render(e recipients.Entry) (*Message, error) {
	body, err := r.Load(e.Template)
	if err != nil {
		return nil, err
	}

	html := Substitute(body, e.Vars)
	msg := &Message{
		To:       e.Recipient,
		HTML:     html,
		Template: e.Template,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered template %s: %w", e.Template, err)
	}
	msg.Text = collapseSpace(doc.Find("body").Text())

	switch {
	case strings.TrimSpace(e.Vars[SubjectVar]) != "":
		msg.Subject = strings.TrimSpace(Substitute(e.Vars[SubjectVar], e.Vars))
	case collapseSpace(doc.Find("title").First().Text()) != "":
		msg.Subject = collapseSpace(doc.Find("title").First().Text())
	default:
		msg.Subject = r.DefaultSubject
	}
	return msg, nil
}

// Substitute replaces every [[key]] marker with its value verbatim. No
// escaping is applied and markers without a value are left as they are.
// The recipient and template columns are never substituted.
func Substitute(body string, vars map[string]string) string {
	if len(vars) == 0 {
		return body
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		if k == recipients.ColumnRecipient || k == recipients.ColumnTemplate {
			continue
		}
		pairs = append(pairs, "[["+k+"]]", v)
	}
	return strings.NewReplacer(pairs...).Replace(body)
}

// Markers lists the distinct [[key]] names in body, in order of first use.
func Markers(body string) []string {
	var out []string
	seen := map[string]bool{}
	for {
		start := strings.Index(body, "[[")
		if start < 0 {
			return out
		}
		end := strings.Index(body[start+2:], "]]")
		if end < 0 {
			return out
		}
		key := body[start+2 : start+2+end]
		if key != "" && !strings.ContainsAny(key, "[]") && !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
		body = body[start+2+end+2:]
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
