// Package template provides the scene source templates for Sceneforge.
//
// Templates are Go text/template files embedded into the binary, described
// by a YAML manifest that maps template IDs to files and declares the
// per-framework fallback template used on render retries. A directory of
// templates on disk can override the embedded set for development.
//
// The Store satisfies render.TemplateEngine.
package template
