package template

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	texttemplate "text/template"

	"gopkg.in/yaml.v3"

	"github.com/sceneforge/sceneforge-core/internal/render"
)

//go:embed templates
var embeddedFS embed.FS

// manifestFile is the manifest path inside a template set.
const manifestFile = "manifest.yaml"

// Manifest describes a template set.
type Manifest struct {
	Templates []ManifestEntry `yaml:"templates"`

	// Fallbacks maps framework name to the template ID retried after a
	// failed render.
	Fallbacks map[string]string `yaml:"fallbacks"`
}

// ManifestEntry describes one template.
type ManifestEntry struct {
	ID          string `yaml:"id"`
	Framework   string `yaml:"framework"`
	File        string `yaml:"file"`
	Description string `yaml:"description"`
}

// Info is the public description of a loaded template.
type Info struct {
	ID          string           `json:"id"`
	Framework   render.Framework `json:"framework"`
	Description string           `json:"description"`
}

// entry is a loaded, parsed template.
type entry struct {
	info Info
	tmpl *texttemplate.Template
}

// Store holds the parsed template set and implements render.TemplateEngine.
type Store struct {
	templates map[string]entry
	fallbacks map[render.Framework]string
}

// NewStore loads the embedded template set.
func NewStore() (*Store, error) {
	sub, err := fs.Sub(embeddedFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("opening embedded templates: %w", err)
	}
	return loadStore(sub)
}

// NewStoreFromDir loads a template set from a directory, overriding the
// embedded one. Used in development to iterate on templates without
// rebuilding.
func NewStoreFromDir(dir string) (*Store, error) {
	return loadStore(os.DirFS(dir))
}

// loadStore reads the manifest and parses every listed template.
func loadStore(fsys fs.FS) (*Store, error) {
	data, err := fs.ReadFile(fsys, manifestFile)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	store := &Store{
		templates: make(map[string]entry, len(manifest.Templates)),
		fallbacks: make(map[render.Framework]string, len(manifest.Fallbacks)),
	}

	for _, m := range manifest.Templates {
		if m.ID == "" || m.File == "" {
			return nil, fmt.Errorf("%w: entry missing id or file", ErrInvalidManifest)
		}
		framework, err := render.ParseFramework(m.Framework)
		if err != nil {
			return nil, fmt.Errorf("%w: template %s: %w", ErrInvalidManifest, m.ID, err)
		}
		if _, dup := store.templates[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate template id %s", ErrInvalidManifest, m.ID)
		}

		source, err := fs.ReadFile(fsys, m.File)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", m.ID, err)
		}

		tmpl, err := texttemplate.New(m.ID).Option("missingkey=zero").Parse(string(source))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", m.ID, err)
		}

		store.templates[m.ID] = entry{
			info: Info{
				ID:          m.ID,
				Framework:   framework,
				Description: m.Description,
			},
			tmpl: tmpl,
		}
	}

	for name, id := range manifest.Fallbacks {
		framework, err := render.ParseFramework(name)
		if err != nil {
			return nil, fmt.Errorf("%w: fallback for %q: %w", ErrInvalidManifest, name, err)
		}
		fallback, ok := store.templates[id]
		if !ok {
			return nil, fmt.Errorf("%w: fallback %s for %s not defined", ErrInvalidManifest, id, name)
		}
		if fallback.info.Framework != framework {
			return nil, fmt.Errorf("%w: fallback %s targets %s, not %s", ErrInvalidManifest, id, fallback.info.Framework, name)
		}
		store.fallbacks[framework] = id
	}

	return store, nil
}

// GenerateSource renders the template identified by templateID with the
// given parameters.
//
// Returns:
//   - string: The generated scene source
//   - error: ErrUnknownTemplate or ErrRenderFailed
func (s *Store) GenerateSource(templateID string, params map[string]any) (string, error) {
	e, ok := s.templates[templateID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, templateID)
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRenderFailed, templateID, err)
	}
	return buf.String(), nil
}

// FallbackTemplate returns the fallback template ID for a framework.
func (s *Store) FallbackTemplate(framework render.Framework) (string, bool) {
	id, ok := s.fallbacks[framework]
	return id, ok
}

// Get returns the info for one template.
func (s *Store) Get(templateID string) (Info, bool) {
	e, ok := s.templates[templateID]
	return e.info, ok
}

// Templates lists all loaded templates sorted by ID.
func (s *Store) Templates() []Info {
	infos := make([]Info, 0, len(s.templates))
	for _, e := range s.templates {
		infos = append(infos, e.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
