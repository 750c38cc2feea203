package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

const DefaultLang = "en"

// Translator renders the outbound notification texts.
type Translator struct {
	lang     string
	messages map[string]string
}

// NewTranslator loads locales/<lang>.yaml from fsys. An empty lang means DefaultLang.
func NewTranslator(fsys fs.FS, lang string) (*Translator, error) {
	if lang == "" {
		lang = DefaultLang
	}
	p := path.Join("locales", fmt.Sprintf("%s.yaml", lang))
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", p, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}
	t.lang = lang
	return t, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var messages map[string]string
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{messages: messages}, nil
}

func (t *Translator) Lang() string { return t.lang }

// T formats the message for key. Unknown keys come back unchanged.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.messages[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
