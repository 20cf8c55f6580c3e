package view

import "errors"

var (
	// ErrTemplateNotFound indicates the template file or component is missing.
	ErrTemplateNotFound = errors.New("view: template not found")

	// ErrRender indicates parsing or executing a template failed.
	ErrRender = errors.New("view: render failed")

	// ErrUnknownEngine indicates an unsupported templates.engine value.
	ErrUnknownEngine = errors.New("view: unknown engine")

	// ErrInvalidFrontmatter indicates malformed YAML frontmatter.
	ErrInvalidFrontmatter = errors.New("view: invalid frontmatter")
)
